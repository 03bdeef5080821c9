package actions

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestApplySingleSubstitutes(t *testing.T) {
	values := map[string]string{"email": "bob@example.com", "amount": "50"}
	out := ApplySingle(`{"to":"{email}","body":"You received {amount} USDC"}`, values)
	assert.Equal(t, `{"to":"bob@example.com","body":"You received 50 USDC"}`, out)
}

func TestApplySingleLeavesUnmatchedKeys(t *testing.T) {
	out := ApplySingle("Hello {name}, ref {missing}", map[string]string{"name": "Ada"})
	assert.Equal(t, "Hello Ada, ref {missing}", out)
}

func TestApplyDoubleSubstitutes(t *testing.T) {
	values := map[string]string{"user.name": "Ada", "user.plan": "pro"}
	out := ApplyDouble("{{user.name}} upgraded to {{user.plan}}", values)
	assert.Equal(t, "Ada upgraded to pro", out)
}

func TestApplyDoubleLeavesUnmatchedKeys(t *testing.T) {
	out := ApplyDouble("row: {{col_a}} / {{col_b}}", map[string]string{"col_a": "1"})
	assert.Equal(t, "row: 1 / {{col_b}}", out)
}

func TestApplyDoubleIgnoresSingleBraces(t *testing.T) {
	out := ApplyDouble("keep {key} but swap {{key}}", map[string]string{"key": "X"})
	assert.Equal(t, "keep {key} but swap X", out)
}

func TestFlattenNestedPayload(t *testing.T) {
	payload := map[string]any{
		"comment": map[string]any{
			"amount":   float64(100),
			"address":  "abc123",
			"verified": true,
			"note":     nil,
		},
		"id": float64(7),
	}
	values := Flatten(payload)
	assert.Equal(t, "100", values["comment.amount"])
	assert.Equal(t, "abc123", values["comment.address"])
	assert.Equal(t, "true", values["comment.verified"])
	assert.Equal(t, "", values["comment.note"])
	assert.Equal(t, "7", values["id"])
}
