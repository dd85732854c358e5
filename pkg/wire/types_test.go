package wire

import (
	"encoding/json"
	"strings"
	"testing"
)

func TestCredentialAckOmitsValue(t *testing.T) {
	b, err := json.Marshal(NewCredentialAck("api_key"))
	if err != nil {
		t.Fatalf("Marshal: %v", err)
	}
	s := string(b)
	if !strings.Contains(s, `"type":"credential_ack"`) || !strings.Contains(s, `"name":"api_key"`) {
		t.Errorf("ack JSON = %s", s)
	}
	if strings.Contains(s, "value") {
		t.Errorf("ack JSON leaks a value field: %s", s)
	}
}

func TestUncorrelatedErrorOmitsID(t *testing.T) {
	b, err := json.Marshal(NewErrorResponse("", "parse failure"))
	if err != nil {
		t.Fatalf("Marshal: %v", err)
	}
	if strings.Contains(string(b), `"id"`) {
		t.Errorf("uncorrelated error carries an id: %s", b)
	}
}

func TestExecuteRequestDecode(t *testing.T) {
	var req Request
	payload := `{"type":"execute","id":"r7","tool":"bash","args":{"command":"ls"},"timeoutMs":5000}`
	if err := json.Unmarshal([]byte(payload), &req); err != nil {
		t.Fatalf("Unmarshal: %v", err)
	}
	if req.Type != RequestExecute || req.ID != "r7" || req.Tool != "bash" || req.TimeoutMs != 5000 {
		t.Errorf("decoded request = %+v", req)
	}
	var args struct {
		Command string `json:"command"`
	}
	if err := json.Unmarshal(req.Args, &args); err != nil || args.Command != "ls" {
		t.Errorf("args decode = %+v, err = %v", args, err)
	}
}
