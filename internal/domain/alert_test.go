package domain

import (
	"encoding/json"
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAlertRequestDefaults(t *testing.T) {
	var req AlertRequest
	require.NoError(t, json.Unmarshal([]byte(`{"identity":"  U@X.com "}`), &req))

	id := req.TargetIdentity()
	assert.Equal(t, "u@x.com", id)
	assert.Equal(t, Profile{Identity: "u@x.com", UserType: UserTypePerson}, req.Profile(id))
	assert.Equal(t, Conditions{Zone: DefaultZone, RiskLevel: DefaultRiskLevel, Contaminants: DefaultContaminants}, req.Conditions())
}

func TestAlertRequestLegacyEmailKey(t *testing.T) {
	var req AlertRequest
	require.NoError(t, json.Unmarshal([]byte(`{"email":"a@b.com","userType":"Company"}`), &req))

	assert.Equal(t, "a@b.com", req.TargetIdentity())
	assert.Equal(t, UserTypeCompany, req.Profile("a@b.com").UserType)

	var legacy AlertRequest
	body := `{"email":"u@x.com","tipo_usuario":"empresa","risk_level":"high","zone":"Centro","contaminants":["PM10"]}`
	require.NoError(t, json.Unmarshal([]byte(body), &legacy))

	assert.Equal(t, "u@x.com", legacy.TargetIdentity())
	assert.Equal(t, Profile{Identity: "u@x.com", UserType: UserTypeCompany}, legacy.Profile("u@x.com"))
	assert.Equal(t, Conditions{Zone: "Centro", RiskLevel: "high", Contaminants: "PM10"}, legacy.Conditions())
}

func TestAlertRequestLegacyUserTypes(t *testing.T) {
	tests := []struct {
		body string
		want UserType
	}{
		{body: `{"tipo_usuario":"persona"}`, want: UserTypePerson},
		{body: `{"tipo_usuario":"Gobierno"}`, want: UserTypeGovernment},
		{body: `{"userType":"empresa"}`, want: UserTypeCompany},
		{body: `{"userType":"government","tipo_usuario":"empresa"}`, want: UserTypeGovernment},
		{body: `{}`, want: DefaultUserType},
	}
	for _, tt := range tests {
		t.Run(tt.body, func(t *testing.T) {
			var req AlertRequest
			require.NoError(t, json.Unmarshal([]byte(tt.body), &req))
			assert.Equal(t, tt.want, req.Profile("").UserType)
		})
	}
}

func TestAlertRequestRiskLevelPrefersCurrentKey(t *testing.T) {
	var req AlertRequest
	require.NoError(t, json.Unmarshal([]byte(`{"riskLevel":"very high","risk_level":"high"}`), &req))
	assert.Equal(t, "very high", req.Conditions().RiskLevel)
}

func TestContaminantsAcceptsStringOrList(t *testing.T) {
	tests := []struct {
		name string
		body string
		want string
	}{
		{name: "string", body: `{"contaminants":"PM2.5"}`, want: "PM2.5"},
		{name: "list", body: `{"contaminants":["PM2.5"," NO2 ",""]}`, want: "PM2.5, NO2"},
		{name: "empty string", body: `{"contaminants":""}`, want: DefaultContaminants},
		{name: "null", body: `{"contaminants":null}`, want: DefaultContaminants},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var req AlertRequest
			require.NoError(t, json.Unmarshal([]byte(tt.body), &req))
			assert.Equal(t, tt.want, req.Conditions().Contaminants)
		})
	}

	var req AlertRequest
	assert.Error(t, json.Unmarshal([]byte(`{"contaminants":42}`), &req))
}

func TestParseAddress(t *testing.T) {
	addr, err := ParseAddress("telegram:123456")
	require.NoError(t, err)
	assert.Equal(t, NewAddress(ChannelTelegram, "123456"), addr)
	assert.Equal(t, "telegram:123456", addr.String())

	addr, err = ParseAddress("ws:sess_1:extra")
	require.NoError(t, err)
	assert.Equal(t, "sess_1:extra", addr.ID)

	for _, bad := range []string{"", "telegram", ":1", "ws:"} {
		_, err := ParseAddress(bad)
		assert.Error(t, err, bad)
	}
}

func TestErrorCode(t *testing.T) {
	assert.Equal(t, "not_found", ErrorCode(fmt.Errorf("%w: account", ErrNotFound)))
	assert.Equal(t, "delivery_error", ErrorCode(fmt.Errorf("send: %w", ErrDelivery)))
	assert.Equal(t, "internal", ErrorCode(errors.New("boom")))
}
