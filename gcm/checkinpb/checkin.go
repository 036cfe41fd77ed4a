// Package checkinpb declares Android check-in protocol buffer messages
// (checkin.proto and android_checkin.proto in Chromium, package checkin_proto).
// Only fields used by browser clients are declared.
package checkinpb

import (
	proto "github.com/golang/protobuf/proto"
)

// ChromeBuildProto.platform
const (
	PlatformWin   int32 = 1
	PlatformMac   int32 = 2
	PlatformLinux int32 = 3
	PlatformCros  int32 = 4
)

// ChromeBuildProto.channel
const (
	ChannelStable int32 = 1
	ChannelBeta   int32 = 2
	ChannelDev    int32 = 3
)

// AndroidCheckinProto.type
const (
	DeviceAndroidOS     int32 = 1
	DeviceIOSOS         int32 = 2
	DeviceChromeBrowser int32 = 3
	DeviceChromeOS      int32 = 4
)

type ChromeBuildProto struct {
	Platform      *int32  `protobuf:"varint,1,opt,name=platform" json:"platform,omitempty"`
	ChromeVersion *string `protobuf:"bytes,2,opt,name=chrome_version,json=chromeVersion" json:"chrome_version,omitempty"`
	Channel       *int32  `protobuf:"varint,3,opt,name=channel" json:"channel,omitempty"`
}

func (m *ChromeBuildProto) Reset()         { *m = ChromeBuildProto{} }
func (m *ChromeBuildProto) String() string { return proto.CompactTextString(m) }
func (*ChromeBuildProto) ProtoMessage()    {}

type AndroidCheckinProto struct {
	LastCheckinMsec *int64            `protobuf:"varint,2,opt,name=last_checkin_msec,json=lastCheckinMsec" json:"last_checkin_msec,omitempty"`
	CellOperator    *string           `protobuf:"bytes,6,opt,name=cell_operator,json=cellOperator" json:"cell_operator,omitempty"`
	SimOperator     *string           `protobuf:"bytes,7,opt,name=sim_operator,json=simOperator" json:"sim_operator,omitempty"`
	Roaming         *string           `protobuf:"bytes,8,opt,name=roaming" json:"roaming,omitempty"`
	UserNumber      *int32            `protobuf:"varint,9,opt,name=user_number,json=userNumber" json:"user_number,omitempty"`
	Type            *int32            `protobuf:"varint,12,opt,name=type" json:"type,omitempty"`
	ChromeBuild     *ChromeBuildProto `protobuf:"bytes,13,opt,name=chrome_build,json=chromeBuild" json:"chrome_build,omitempty"`
}

func (m *AndroidCheckinProto) Reset()         { *m = AndroidCheckinProto{} }
func (m *AndroidCheckinProto) String() string { return proto.CompactTextString(m) }
func (*AndroidCheckinProto) ProtoMessage()    {}

type AndroidCheckinRequest struct {
	Imei             *string              `protobuf:"bytes,1,opt,name=imei" json:"imei,omitempty"`
	Id               *int64               `protobuf:"varint,2,opt,name=id" json:"id,omitempty"`
	Digest           *string              `protobuf:"bytes,3,opt,name=digest" json:"digest,omitempty"`
	Checkin          *AndroidCheckinProto `protobuf:"bytes,4,opt,name=checkin" json:"checkin,omitempty"`
	Locale           *string              `protobuf:"bytes,6,opt,name=locale" json:"locale,omitempty"`
	LoggingId        *int64               `protobuf:"varint,7,opt,name=logging_id,json=loggingId" json:"logging_id,omitempty"`
	MacAddr          []string             `protobuf:"bytes,9,rep,name=mac_addr,json=macAddr" json:"mac_addr,omitempty"`
	Meid             *string              `protobuf:"bytes,10,opt,name=meid" json:"meid,omitempty"`
	AccountCookie    []string             `protobuf:"bytes,11,rep,name=account_cookie,json=accountCookie" json:"account_cookie,omitempty"`
	TimeZone         *string              `protobuf:"bytes,12,opt,name=time_zone,json=timeZone" json:"time_zone,omitempty"`
	SecurityToken    *uint64              `protobuf:"fixed64,13,opt,name=security_token,json=securityToken" json:"security_token,omitempty"`
	Version          *int32               `protobuf:"varint,14,opt,name=version" json:"version,omitempty"`
	OtaCert          []string             `protobuf:"bytes,15,rep,name=ota_cert,json=otaCert" json:"ota_cert,omitempty"`
	SerialNumber     *string              `protobuf:"bytes,16,opt,name=serial_number,json=serialNumber" json:"serial_number,omitempty"`
	Esn              *string              `protobuf:"bytes,17,opt,name=esn" json:"esn,omitempty"`
	Fragment         *int32               `protobuf:"varint,20,opt,name=fragment" json:"fragment,omitempty"`
	UserName         *string              `protobuf:"bytes,21,opt,name=user_name,json=userName" json:"user_name,omitempty"`
	UserSerialNumber *int32               `protobuf:"varint,22,opt,name=user_serial_number,json=userSerialNumber" json:"user_serial_number,omitempty"`
}

func (m *AndroidCheckinRequest) Reset()         { *m = AndroidCheckinRequest{} }
func (m *AndroidCheckinRequest) String() string { return proto.CompactTextString(m) }
func (*AndroidCheckinRequest) ProtoMessage()    {}

func (m *AndroidCheckinRequest) GetId() int64 {
	if m != nil && m.Id != nil {
		return *m.Id
	}
	return 0
}

func (m *AndroidCheckinRequest) GetSecurityToken() uint64 {
	if m != nil && m.SecurityToken != nil {
		return *m.SecurityToken
	}
	return 0
}

type GservicesSetting struct {
	Name  []byte `protobuf:"bytes,1,opt,name=name" json:"name,omitempty"`
	Value []byte `protobuf:"bytes,2,opt,name=value" json:"value,omitempty"`
}

func (m *GservicesSetting) Reset()         { *m = GservicesSetting{} }
func (m *GservicesSetting) String() string { return proto.CompactTextString(m) }
func (*GservicesSetting) ProtoMessage()    {}

type AndroidCheckinResponse struct {
	StatsOk               *bool               `protobuf:"varint,1,opt,name=stats_ok,json=statsOk" json:"stats_ok,omitempty"`
	TimeMsec              *int64              `protobuf:"varint,3,opt,name=time_msec,json=timeMsec" json:"time_msec,omitempty"`
	Digest                *string             `protobuf:"bytes,4,opt,name=digest" json:"digest,omitempty"`
	Setting               []*GservicesSetting `protobuf:"bytes,5,rep,name=setting" json:"setting,omitempty"`
	MarketOk              *bool               `protobuf:"varint,6,opt,name=market_ok,json=marketOk" json:"market_ok,omitempty"`
	AndroidId             *uint64             `protobuf:"fixed64,7,opt,name=android_id,json=androidId" json:"android_id,omitempty"`
	SecurityToken         *uint64             `protobuf:"fixed64,8,opt,name=security_token,json=securityToken" json:"security_token,omitempty"`
	SettingsDiff          *bool               `protobuf:"varint,9,opt,name=settings_diff,json=settingsDiff" json:"settings_diff,omitempty"`
	DeleteSetting         []string            `protobuf:"bytes,10,rep,name=delete_setting,json=deleteSetting" json:"delete_setting,omitempty"`
	VersionInfo           *string             `protobuf:"bytes,11,opt,name=version_info,json=versionInfo" json:"version_info,omitempty"`
	DeviceDataVersionInfo *string             `protobuf:"bytes,12,opt,name=device_data_version_info,json=deviceDataVersionInfo" json:"device_data_version_info,omitempty"`
}

func (m *AndroidCheckinResponse) Reset()         { *m = AndroidCheckinResponse{} }
func (m *AndroidCheckinResponse) String() string { return proto.CompactTextString(m) }
func (*AndroidCheckinResponse) ProtoMessage()    {}

func (m *AndroidCheckinResponse) GetStatsOk() bool {
	if m != nil && m.StatsOk != nil {
		return *m.StatsOk
	}
	return false
}

func (m *AndroidCheckinResponse) GetTimeMsec() int64 {
	if m != nil && m.TimeMsec != nil {
		return *m.TimeMsec
	}
	return 0
}

func (m *AndroidCheckinResponse) GetAndroidId() uint64 {
	if m != nil && m.AndroidId != nil {
		return *m.AndroidId
	}
	return 0
}

func (m *AndroidCheckinResponse) GetSecurityToken() uint64 {
	if m != nil && m.SecurityToken != nil {
		return *m.SecurityToken
	}
	return 0
}
