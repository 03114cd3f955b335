package telemetry

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestConfigValidate(t *testing.T) {
	tests := []struct {
		name    string
		cfg     Config
		wantErr bool
	}{
		{name: "disabled needs nothing", cfg: Config{}},
		{
			name: "enabled with grpc",
			cfg:  Config{Enabled: true, ServiceName: "tiisd", Endpoint: "localhost:4317", Protocol: "grpc"},
		},
		{
			name: "enabled with http",
			cfg:  Config{Enabled: true, ServiceName: "tiisd", Endpoint: "localhost:4318", Protocol: "http/protobuf"},
		},
		{
			name:    "enabled without service name",
			cfg:     Config{Enabled: true, Endpoint: "localhost:4317"},
			wantErr: true,
		},
		{
			name:    "enabled without endpoint",
			cfg:     Config{Enabled: true, ServiceName: "tiisd"},
			wantErr: true,
		},
		{
			name:    "bad protocol",
			cfg:     Config{Enabled: true, ServiceName: "tiisd", Endpoint: "x", Protocol: "carrier-pigeon"},
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.cfg.Validate()
			if tt.wantErr {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestNew_Disabled(t *testing.T) {
	tel, err := New(context.Background(), &Config{Enabled: false})
	require.NoError(t, err)
	require.NotNil(t, tel)
	assert.NoError(t, tel.Shutdown(context.Background()))
}

func TestNew_InvalidConfig(t *testing.T) {
	_, err := New(context.Background(), &Config{Enabled: true})
	assert.Error(t, err)
}
