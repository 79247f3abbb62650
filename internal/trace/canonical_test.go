package trace

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMarshalCanonical_SortsKeys(t *testing.T) {
	got, err := MarshalCanonical(map[string]any{
		"zeta":  int64(1),
		"alpha": "x",
		"mid":   true,
	})
	require.NoError(t, err)
	assert.Equal(t, `{"alpha":"x","mid":true,"zeta":1}`, string(got))
}

func TestMarshalCanonical_NoHTMLEscaping(t *testing.T) {
	got, err := MarshalCanonical(map[string]any{"cmd": "a <b> & c"})
	require.NoError(t, err)
	assert.Equal(t, `{"cmd":"a <b> & c"}`, string(got))
}

func TestMarshalCanonical_EscapesControlCharacters(t *testing.T) {
	got, err := MarshalCanonical("line1\nline2\ttab\x01")
	require.NoError(t, err)
	assert.Equal(t, `"line1\nline2\ttab"`, string(got))
}

func TestMarshalCanonical_NFCNormalizesStrings(t *testing.T) {
	// "e" + COMBINING ACUTE ACCENT normalizes to precomposed U+00E9.
	got, err := MarshalCanonical("é")
	require.NoError(t, err)
	assert.Equal(t, "\"é\"", string(got))
}

func TestMarshalCanonical_RejectsFloatsAndNull(t *testing.T) {
	_, err := MarshalCanonical(map[string]any{"x": 1.5})
	assert.Error(t, err)

	_, err = MarshalCanonical(map[string]any{"x": nil})
	assert.Error(t, err)
}

func TestMarshalCanonical_NestedArrays(t *testing.T) {
	got, err := MarshalCanonical(map[string]any{
		"events": []any{
			map[string]any{"seq": int64(1), "type": "attempt_failed"},
			map[string]any{"seq": int64(2), "type": "dispatched"},
		},
	})
	require.NoError(t, err)
	assert.Equal(t,
		`{"events":[{"seq":1,"type":"attempt_failed"},{"seq":2,"type":"dispatched"}]}`,
		string(got))
}

func TestSnapshot_CanonicalJSON(t *testing.T) {
	s := &Snapshot{
		ScenarioName: "demo",
		ChainToken:   "chain-1",
		Events: []Event{
			{Type: "attempt_failed", Seq: 1, Attempt: 1, Error: "boom"},
			{Type: "dispatched", Seq: 2, Handler: "error", Attempts: 1, Error: "boom"},
		},
	}

	got, err := s.CanonicalJSON()
	require.NoError(t, err)
	assert.Equal(t,
		`{"chain_token":"chain-1","events":[`+
			`{"attempt":1,"error":"boom","seq":1,"type":"attempt_failed"},`+
			`{"attempts":1,"error":"boom","handler":"error","seq":2,"type":"dispatched"}`+
			`],"scenario_name":"demo"}`,
		string(got))
}
