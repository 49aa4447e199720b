package util

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestValidateURL(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		url     string
		wantErr string
	}{
		{name: "http", url: "http://localhost:9001"},
		{name: "https with path", url: "https://api.example.com/v1"},
		{name: "empty", url: "", wantErr: "cannot be empty"},
		{name: "relative", url: "/items", wantErr: "must have a scheme"},
		{name: "bad scheme", url: "ftp://example.com", wantErr: "must be http or https"},
		{name: "no host", url: "http://", wantErr: "must have a host"},
		{name: "unparseable", url: "http://[::1", wantErr: "invalid URL"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			err := ValidateURL(tt.url)
			if tt.wantErr == "" {
				assert.NoError(t, err)
				return
			}
			assert.ErrorContains(t, err, tt.wantErr)
		})
	}
}

func TestValidatePort(t *testing.T) {
	t.Parallel()

	assert.NoError(t, ValidatePort(1))
	assert.NoError(t, ValidatePort(8000))
	assert.NoError(t, ValidatePort(65535))
	assert.Error(t, ValidatePort(0))
	assert.Error(t, ValidatePort(65536))
	assert.Error(t, ValidatePort(-1))
}

func TestValidateNonEmpty(t *testing.T) {
	t.Parallel()

	assert.NoError(t, ValidateNonEmpty("GET", "method"))
	assert.EqualError(t, ValidateNonEmpty("  ", "method"), "method cannot be empty")
}

func TestValidateHost(t *testing.T) {
	t.Parallel()

	tests := []struct {
		host  string
		valid bool
	}{
		{host: "127.0.0.1", valid: true},
		{host: "0.0.0.0", valid: true},
		{host: "::1", valid: true},
		{host: "localhost", valid: true},
		{host: "gateway.internal", valid: true},
		{host: "", valid: false},
		{host: "bad host", valid: false},
		{host: "-leading.example", valid: false},
		{host: "double..dot", valid: false},
		{host: strings.Repeat("a", 254), valid: false},
	}

	for _, tt := range tests {
		t.Run(tt.host, func(t *testing.T) {
			t.Parallel()
			err := ValidateHost(tt.host)
			if tt.valid {
				assert.NoError(t, err)
			} else {
				assert.Error(t, err)
			}
		})
	}
}
