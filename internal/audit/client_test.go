package audit

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestDescribeClient(t *testing.T) {
	tests := []struct {
		name      string
		userAgent string
		want      string
	}{
		{
			name:      "desktop chrome",
			userAgent: "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/120.0.6099.109 Safari/537.36",
			want:      "Chrome 120 on Windows 10",
		},
		{
			name:      "mobile safari",
			userAgent: "Mozilla/5.0 (iPhone; CPU iPhone OS 17_1 like Mac OS X) AppleWebKit/605.1.15 (KHTML, like Gecko) Version/17.1 Mobile/15E148 Safari/604.1",
			want:      "Safari 17 on iPhone",
		},
		{
			name:      "empty",
			userAgent: "",
			want:      "Unknown Client",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, DescribeClient(tt.userAgent))
		})
	}
}

func TestDescribeClient_FirefoxIncludesMajorVersion(t *testing.T) {
	got := DescribeClient("Mozilla/5.0 (X11; Linux x86_64; rv:121.0) Gecko/20100101 Firefox/121.0")
	assert.Contains(t, got, "Firefox 121")
}
