// Package mcspb declares protocol buffer messages of the Mobile Connection Server
// protocol (mcs.proto in Chromium, package mcs_proto).
//
// Messages are plain structs with protobuf struct tags, marshaled by
// github.com/golang/protobuf reflection. Field numbers must match mcs.proto.
// Required fields of the original schema are declared optional here,
// the server always sends them and the client must never fail on their absence.
package mcspb

import (
	proto "github.com/golang/protobuf/proto"
)

// LoginRequest.auth_service
const AuthServiceAndroidID int32 = 2

// IqStanza.type
const (
	IqTypeGet    int32 = 0
	IqTypeSet    int32 = 1
	IqTypeResult int32 = 2
	IqTypeError  int32 = 3
)

// Common fields for all heartbeat messages.
type HeartbeatPing struct {
	StreamId             *int32 `protobuf:"varint,1,opt,name=stream_id,json=streamId" json:"stream_id,omitempty"`
	LastStreamIdReceived *int32 `protobuf:"varint,2,opt,name=last_stream_id_received,json=lastStreamIdReceived" json:"last_stream_id_received,omitempty"`
	Status               *int64 `protobuf:"varint,3,opt,name=status" json:"status,omitempty"`
}

func (m *HeartbeatPing) Reset()         { *m = HeartbeatPing{} }
func (m *HeartbeatPing) String() string { return proto.CompactTextString(m) }
func (*HeartbeatPing) ProtoMessage()    {}

func (m *HeartbeatPing) GetStreamId() int32 {
	if m != nil && m.StreamId != nil {
		return *m.StreamId
	}
	return 0
}

func (m *HeartbeatPing) GetLastStreamIdReceived() int32 {
	if m != nil && m.LastStreamIdReceived != nil {
		return *m.LastStreamIdReceived
	}
	return 0
}

func (m *HeartbeatPing) GetStatus() int64 {
	if m != nil && m.Status != nil {
		return *m.Status
	}
	return 0
}

type HeartbeatAck struct {
	StreamId             *int32 `protobuf:"varint,1,opt,name=stream_id,json=streamId" json:"stream_id,omitempty"`
	LastStreamIdReceived *int32 `protobuf:"varint,2,opt,name=last_stream_id_received,json=lastStreamIdReceived" json:"last_stream_id_received,omitempty"`
	Status               *int64 `protobuf:"varint,3,opt,name=status" json:"status,omitempty"`
}

func (m *HeartbeatAck) Reset()         { *m = HeartbeatAck{} }
func (m *HeartbeatAck) String() string { return proto.CompactTextString(m) }
func (*HeartbeatAck) ProtoMessage()    {}

func (m *HeartbeatAck) GetStreamId() int32 {
	if m != nil && m.StreamId != nil {
		return *m.StreamId
	}
	return 0
}

func (m *HeartbeatAck) GetLastStreamIdReceived() int32 {
	if m != nil && m.LastStreamIdReceived != nil {
		return *m.LastStreamIdReceived
	}
	return 0
}

func (m *HeartbeatAck) GetStatus() int64 {
	if m != nil && m.Status != nil {
		return *m.Status
	}
	return 0
}

type ErrorInfo struct {
	Code      *int32     `protobuf:"varint,1,opt,name=code" json:"code,omitempty"`
	Message   *string    `protobuf:"bytes,2,opt,name=message" json:"message,omitempty"`
	Type      *string    `protobuf:"bytes,3,opt,name=type" json:"type,omitempty"`
	Extension *Extension `protobuf:"bytes,4,opt,name=extension" json:"extension,omitempty"`
}

func (m *ErrorInfo) Reset()         { *m = ErrorInfo{} }
func (m *ErrorInfo) String() string { return proto.CompactTextString(m) }
func (*ErrorInfo) ProtoMessage()    {}

func (m *ErrorInfo) GetCode() int32 {
	if m != nil && m.Code != nil {
		return *m.Code
	}
	return 0
}

func (m *ErrorInfo) GetMessage() string {
	if m != nil && m.Message != nil {
		return *m.Message
	}
	return ""
}

type Setting struct {
	Name  *string `protobuf:"bytes,1,opt,name=name" json:"name,omitempty"`
	Value *string `protobuf:"bytes,2,opt,name=value" json:"value,omitempty"`
}

func (m *Setting) Reset()         { *m = Setting{} }
func (m *Setting) String() string { return proto.CompactTextString(m) }
func (*Setting) ProtoMessage()    {}

func (m *Setting) GetName() string {
	if m != nil && m.Name != nil {
		return *m.Name
	}
	return ""
}

func (m *Setting) GetValue() string {
	if m != nil && m.Value != nil {
		return *m.Value
	}
	return ""
}

type HeartbeatStat struct {
	Ip         *string `protobuf:"bytes,1,opt,name=ip" json:"ip,omitempty"`
	Timeout    *bool   `protobuf:"varint,2,opt,name=timeout" json:"timeout,omitempty"`
	IntervalMs *int32  `protobuf:"varint,3,opt,name=interval_ms,json=intervalMs" json:"interval_ms,omitempty"`
}

func (m *HeartbeatStat) Reset()         { *m = HeartbeatStat{} }
func (m *HeartbeatStat) String() string { return proto.CompactTextString(m) }
func (*HeartbeatStat) ProtoMessage()    {}

type HeartbeatConfig struct {
	UploadStat *bool   `protobuf:"varint,1,opt,name=upload_stat,json=uploadStat" json:"upload_stat,omitempty"`
	Ip         *string `protobuf:"bytes,2,opt,name=ip" json:"ip,omitempty"`
	IntervalMs *int32  `protobuf:"varint,3,opt,name=interval_ms,json=intervalMs" json:"interval_ms,omitempty"`
}

func (m *HeartbeatConfig) Reset()         { *m = HeartbeatConfig{} }
func (m *HeartbeatConfig) String() string { return proto.CompactTextString(m) }
func (*HeartbeatConfig) ProtoMessage()    {}

func (m *HeartbeatConfig) GetIntervalMs() int32 {
	if m != nil && m.IntervalMs != nil {
		return *m.IntervalMs
	}
	return 0
}

type LoginRequest struct {
	Id                   *string        `protobuf:"bytes,1,opt,name=id" json:"id,omitempty"`
	Domain               *string        `protobuf:"bytes,2,opt,name=domain" json:"domain,omitempty"`
	User                 *string        `protobuf:"bytes,3,opt,name=user" json:"user,omitempty"`
	Resource             *string        `protobuf:"bytes,4,opt,name=resource" json:"resource,omitempty"`
	AuthToken            *string        `protobuf:"bytes,5,opt,name=auth_token,json=authToken" json:"auth_token,omitempty"`
	DeviceId             *string        `protobuf:"bytes,6,opt,name=device_id,json=deviceId" json:"device_id,omitempty"`
	LastRmqId            *int64         `protobuf:"varint,7,opt,name=last_rmq_id,json=lastRmqId" json:"last_rmq_id,omitempty"`
	Setting              []*Setting     `protobuf:"bytes,8,rep,name=setting" json:"setting,omitempty"`
	ReceivedPersistentId []string       `protobuf:"bytes,10,rep,name=received_persistent_id,json=receivedPersistentId" json:"received_persistent_id,omitempty"`
	AdaptiveHeartbeat    *bool          `protobuf:"varint,12,opt,name=adaptive_heartbeat,json=adaptiveHeartbeat" json:"adaptive_heartbeat,omitempty"`
	HeartbeatStat        *HeartbeatStat `protobuf:"bytes,13,opt,name=heartbeat_stat,json=heartbeatStat" json:"heartbeat_stat,omitempty"`
	UseRmq2              *bool          `protobuf:"varint,14,opt,name=use_rmq2,json=useRmq2" json:"use_rmq2,omitempty"`
	AccountId            *int64         `protobuf:"varint,15,opt,name=account_id,json=accountId" json:"account_id,omitempty"`
	AuthService          *int32         `protobuf:"varint,16,opt,name=auth_service,json=authService" json:"auth_service,omitempty"`
	NetworkType          *int32         `protobuf:"varint,17,opt,name=network_type,json=networkType" json:"network_type,omitempty"`
	Status               *int64         `protobuf:"varint,18,opt,name=status" json:"status,omitempty"`
}

func (m *LoginRequest) Reset()         { *m = LoginRequest{} }
func (m *LoginRequest) String() string { return proto.CompactTextString(m) }
func (*LoginRequest) ProtoMessage()    {}

func (m *LoginRequest) GetId() string {
	if m != nil && m.Id != nil {
		return *m.Id
	}
	return ""
}

func (m *LoginRequest) GetDomain() string {
	if m != nil && m.Domain != nil {
		return *m.Domain
	}
	return ""
}

func (m *LoginRequest) GetUser() string {
	if m != nil && m.User != nil {
		return *m.User
	}
	return ""
}

func (m *LoginRequest) GetAuthToken() string {
	if m != nil && m.AuthToken != nil {
		return *m.AuthToken
	}
	return ""
}

func (m *LoginRequest) GetResource() string {
	if m != nil && m.Resource != nil {
		return *m.Resource
	}
	return ""
}

func (m *LoginRequest) GetDeviceId() string {
	if m != nil && m.DeviceId != nil {
		return *m.DeviceId
	}
	return ""
}

func (m *LoginRequest) GetReceivedPersistentId() []string {
	if m != nil {
		return m.ReceivedPersistentId
	}
	return nil
}

func (m *LoginRequest) GetAdaptiveHeartbeat() bool {
	if m != nil && m.AdaptiveHeartbeat != nil {
		return *m.AdaptiveHeartbeat
	}
	return false
}

func (m *LoginRequest) GetUseRmq2() bool {
	if m != nil && m.UseRmq2 != nil {
		return *m.UseRmq2
	}
	return false
}

func (m *LoginRequest) GetAuthService() int32 {
	if m != nil && m.AuthService != nil {
		return *m.AuthService
	}
	return 0
}

func (m *LoginRequest) GetNetworkType() int32 {
	if m != nil && m.NetworkType != nil {
		return *m.NetworkType
	}
	return 0
}

type LoginResponse struct {
	Id                   *string          `protobuf:"bytes,1,opt,name=id" json:"id,omitempty"`
	Jid                  *string          `protobuf:"bytes,2,opt,name=jid" json:"jid,omitempty"`
	Error                *ErrorInfo       `protobuf:"bytes,3,opt,name=error" json:"error,omitempty"`
	Setting              []*Setting       `protobuf:"bytes,4,rep,name=setting" json:"setting,omitempty"`
	StreamId             *int32           `protobuf:"varint,5,opt,name=stream_id,json=streamId" json:"stream_id,omitempty"`
	LastStreamIdReceived *int32           `protobuf:"varint,6,opt,name=last_stream_id_received,json=lastStreamIdReceived" json:"last_stream_id_received,omitempty"`
	HeartbeatConfig      *HeartbeatConfig `protobuf:"bytes,7,opt,name=heartbeat_config,json=heartbeatConfig" json:"heartbeat_config,omitempty"`
	ServerTimestamp      *int64           `protobuf:"varint,8,opt,name=server_timestamp,json=serverTimestamp" json:"server_timestamp,omitempty"`
}

func (m *LoginResponse) Reset()         { *m = LoginResponse{} }
func (m *LoginResponse) String() string { return proto.CompactTextString(m) }
func (*LoginResponse) ProtoMessage()    {}

func (m *LoginResponse) GetError() *ErrorInfo {
	if m != nil {
		return m.Error
	}
	return nil
}

func (m *LoginResponse) GetServerTimestamp() int64 {
	if m != nil && m.ServerTimestamp != nil {
		return *m.ServerTimestamp
	}
	return 0
}

type StreamErrorStanza struct {
	Type *string `protobuf:"bytes,1,opt,name=type" json:"type,omitempty"`
	Text *string `protobuf:"bytes,2,opt,name=text" json:"text,omitempty"`
}

func (m *StreamErrorStanza) Reset()         { *m = StreamErrorStanza{} }
func (m *StreamErrorStanza) String() string { return proto.CompactTextString(m) }
func (*StreamErrorStanza) ProtoMessage()    {}

type Close struct{}

func (m *Close) Reset()         { *m = Close{} }
func (m *Close) String() string { return proto.CompactTextString(m) }
func (*Close) ProtoMessage()    {}

type Extension struct {
	Id   *int32 `protobuf:"varint,1,opt,name=id" json:"id,omitempty"`
	Data []byte `protobuf:"bytes,2,opt,name=data" json:"data,omitempty"`
}

func (m *Extension) Reset()         { *m = Extension{} }
func (m *Extension) String() string { return proto.CompactTextString(m) }
func (*Extension) ProtoMessage()    {}

type IqStanza struct {
	RmqId                *int64     `protobuf:"varint,1,opt,name=rmq_id,json=rmqId" json:"rmq_id,omitempty"`
	Type                 *int32     `protobuf:"varint,2,opt,name=type" json:"type,omitempty"`
	Id                   *string    `protobuf:"bytes,3,opt,name=id" json:"id,omitempty"`
	From                 *string    `protobuf:"bytes,4,opt,name=from" json:"from,omitempty"`
	To                   *string    `protobuf:"bytes,5,opt,name=to" json:"to,omitempty"`
	Error                *ErrorInfo `protobuf:"bytes,6,opt,name=error" json:"error,omitempty"`
	Extension            *Extension `protobuf:"bytes,7,opt,name=extension" json:"extension,omitempty"`
	PersistentId         *string    `protobuf:"bytes,8,opt,name=persistent_id,json=persistentId" json:"persistent_id,omitempty"`
	StreamId             *int32     `protobuf:"varint,9,opt,name=stream_id,json=streamId" json:"stream_id,omitempty"`
	LastStreamIdReceived *int32     `protobuf:"varint,10,opt,name=last_stream_id_received,json=lastStreamIdReceived" json:"last_stream_id_received,omitempty"`
	AccountId            *int64     `protobuf:"varint,11,opt,name=account_id,json=accountId" json:"account_id,omitempty"`
	Status               *int64     `protobuf:"varint,12,opt,name=status" json:"status,omitempty"`
}

func (m *IqStanza) Reset()         { *m = IqStanza{} }
func (m *IqStanza) String() string { return proto.CompactTextString(m) }
func (*IqStanza) ProtoMessage()    {}

type AppData struct {
	Key   *string `protobuf:"bytes,1,opt,name=key" json:"key,omitempty"`
	Value *string `protobuf:"bytes,2,opt,name=value" json:"value,omitempty"`
}

func (m *AppData) Reset()         { *m = AppData{} }
func (m *AppData) String() string { return proto.CompactTextString(m) }
func (*AppData) ProtoMessage()    {}

func (m *AppData) GetKey() string {
	if m != nil && m.Key != nil {
		return *m.Key
	}
	return ""
}

func (m *AppData) GetValue() string {
	if m != nil && m.Value != nil {
		return *m.Value
	}
	return ""
}

type DataMessageStanza struct {
	Id                   *string    `protobuf:"bytes,2,opt,name=id" json:"id,omitempty"`
	From                 *string    `protobuf:"bytes,3,opt,name=from" json:"from,omitempty"`
	To                   *string    `protobuf:"bytes,4,opt,name=to" json:"to,omitempty"`
	Category             *string    `protobuf:"bytes,5,opt,name=category" json:"category,omitempty"`
	Token                *string    `protobuf:"bytes,6,opt,name=token" json:"token,omitempty"`
	AppData              []*AppData `protobuf:"bytes,7,rep,name=app_data,json=appData" json:"app_data,omitempty"`
	FromTrustedServer    *bool      `protobuf:"varint,8,opt,name=from_trusted_server,json=fromTrustedServer" json:"from_trusted_server,omitempty"`
	PersistentId         *string    `protobuf:"bytes,9,opt,name=persistent_id,json=persistentId" json:"persistent_id,omitempty"`
	StreamId             *int32     `protobuf:"varint,10,opt,name=stream_id,json=streamId" json:"stream_id,omitempty"`
	LastStreamIdReceived *int32     `protobuf:"varint,11,opt,name=last_stream_id_received,json=lastStreamIdReceived" json:"last_stream_id_received,omitempty"`
	RegId                *string    `protobuf:"bytes,13,opt,name=reg_id,json=regId" json:"reg_id,omitempty"`
	DeviceUserId         *int64     `protobuf:"varint,16,opt,name=device_user_id,json=deviceUserId" json:"device_user_id,omitempty"`
	Ttl                  *int32     `protobuf:"varint,17,opt,name=ttl" json:"ttl,omitempty"`
	Sent                 *int64     `protobuf:"varint,18,opt,name=sent" json:"sent,omitempty"`
	Queued               *int32     `protobuf:"varint,19,opt,name=queued" json:"queued,omitempty"`
	Status               *int64     `protobuf:"varint,20,opt,name=status" json:"status,omitempty"`
	RawData              []byte     `protobuf:"bytes,21,opt,name=raw_data,json=rawData" json:"raw_data,omitempty"`
	ImmediateAck         *bool      `protobuf:"varint,24,opt,name=immediate_ack,json=immediateAck" json:"immediate_ack,omitempty"`
}

func (m *DataMessageStanza) Reset()         { *m = DataMessageStanza{} }
func (m *DataMessageStanza) String() string { return proto.CompactTextString(m) }
func (*DataMessageStanza) ProtoMessage()    {}

func (m *DataMessageStanza) GetFrom() string {
	if m != nil && m.From != nil {
		return *m.From
	}
	return ""
}

func (m *DataMessageStanza) GetCategory() string {
	if m != nil && m.Category != nil {
		return *m.Category
	}
	return ""
}

func (m *DataMessageStanza) GetPersistentId() string {
	if m != nil && m.PersistentId != nil {
		return *m.PersistentId
	}
	return ""
}

func (m *DataMessageStanza) GetAppData() []*AppData {
	if m != nil {
		return m.AppData
	}
	return nil
}

func (m *DataMessageStanza) GetRawData() []byte {
	if m != nil {
		return m.RawData
	}
	return nil
}

func (m *DataMessageStanza) GetSent() int64 {
	if m != nil && m.Sent != nil {
		return *m.Sent
	}
	return 0
}

// AppDataValue returns value of first app_data entry with key.
func (m *DataMessageStanza) AppDataValue(key string) (string, bool) {
	for _, ad := range m.GetAppData() {
		if ad.GetKey() == key {
			return ad.GetValue(), true
		}
	}
	return "", false
}
