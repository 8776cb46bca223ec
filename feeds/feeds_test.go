package feeds

import (
	"encoding/json"
	"testing"
)

func TestFlexStringUnmarshal(t *testing.T) {
	tests := []struct {
		raw  string
		want string
	}{
		{`"3 beds"`, "3 beds"},
		{`"  450000  "`, "450000"},
		{`450000.6`, "450000.6"},
		{`3`, "3"},
		{`null`, ""},
	}

	for _, tt := range tests {
		var fs FlexString
		if err := json.Unmarshal([]byte(tt.raw), &fs); err != nil {
			t.Fatalf("Unmarshal(%s) returned error: %v", tt.raw, err)
		}
		if got := fs.String(); got != tt.want {
			t.Errorf("FlexString(%s) = %q; want %q", tt.raw, got, tt.want)
		}
	}
}
