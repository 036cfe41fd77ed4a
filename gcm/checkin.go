package gcm

import (
	"context"
	"net/http"

	"github.com/golang/protobuf/proto"
	"github.com/hyyp-go/hyyp/gcm/checkinpb"
	"github.com/hyyp-go/hyyp/helpers"
	"github.com/juju/errors"
)

// NewCheckinRequest describes Chrome desktop on Linux.
// Known androidID and securityToken are included so backend reuses identity.
func NewCheckinRequest(androidID, securityToken uint64) *checkinpb.AndroidCheckinRequest {
	req := &checkinpb.AndroidCheckinRequest{
		UserSerialNumber: proto.Int32(0),
		Version:          proto.Int32(3),
		Checkin: &checkinpb.AndroidCheckinProto{
			Type: proto.Int32(checkinpb.DeviceChromeBrowser),
			ChromeBuild: &checkinpb.ChromeBuildProto{
				Platform:      proto.Int32(checkinpb.PlatformLinux),
				ChromeVersion: proto.String(ChromeVersion),
				Channel:       proto.Int32(checkinpb.ChannelStable),
			},
		},
	}
	if androidID != 0 {
		req.Id = proto.Int64(int64(androidID))
	}
	if securityToken != 0 {
		req.SecurityToken = proto.Uint64(securityToken)
	}
	return req
}

// CheckIn obtains or refreshes device identity.
// Transport errors and bad statuses are retried, exhaustion returns ErrRegistration.
func (c *Client) CheckIn(ctx context.Context, androidID, securityToken uint64) (*checkinpb.AndroidCheckinResponse, error) {
	c.setDefaults()
	body, err := proto.Marshal(NewCheckinRequest(androidID, securityToken))
	if err != nil {
		return nil, errors.Annotate(err, "checkin marshal")
	}
	header := http.Header{"Content-Type": []string{"application/x-protobuf"}}
	resp := &checkinpb.AndroidCheckinResponse{}
	err = helpers.Retry(ctx, c.Retries, c.RetryDelay, func(attempt int) error {
		b, err := c.post(ctx, c.CheckinURL, header, body)
		if err != nil {
			c.Log.Debugf("gcm checkin attempt=%d err=%v", attempt, err)
			return err
		}
		resp.Reset()
		if err = proto.Unmarshal(b, resp); err != nil {
			return errors.Annotate(err, "checkin unmarshal")
		}
		return nil
	})
	if err != nil {
		return nil, registrationError(err, "checkin", c.Retries)
	}
	c.Log.Debugf("gcm checkin response=%s", resp)
	return resp, nil
}
