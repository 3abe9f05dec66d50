package extract

import (
	"encoding/json"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestExtractArrayFromProseAndFence(t *testing.T) {
	raw := "Here are the profiles you asked for:\n```json\n[{\"name\":\"Ops Olivia\"},{\"name\":\"CFO Carl\"}]\n```\nLet me know if you need more."
	items, err := Array(raw)
	require.NoError(t, err)
	require.Len(t, items, 2)
	assert.Equal(t, "Ops Olivia", items[0].String("name", ""))
	assert.Equal(t, "CFO Carl", items[1].String("name", ""))
}

func TestExtractArrayOutsideFence(t *testing.T) {
	raw := "Sure! The answer is [ {\"a\": 1}, {\"a\": 2} ] as requested."
	items, err := Array(raw)
	require.NoError(t, err)
	require.Len(t, items, 2)
	assert.Equal(t, 2, items[1].Int("a", 0))
}

func TestExtractUntaggedFence(t *testing.T) {
	raw := "```\n{\"fit_score\": 7.5}\n```"
	obj, err := Object(raw)
	require.NoError(t, err)
	assert.Equal(t, 7.5, obj.Float("fit_score", 0))
}

func TestExtractPrefersJSONTaggedFence(t *testing.T) {
	raw := "```text\nignore me\n```\n```json\n{\"ok\": true}\n```"
	obj, err := Object(raw)
	require.NoError(t, err)
	assert.Equal(t, "true", obj.String("ok", ""))
}

func TestExtractWrapsSingleObjectWhenArrayExpected(t *testing.T) {
	v, err := Extract(`{"name":"solo"}`, ShapeArray)
	require.NoError(t, err)
	arr, ok := v.([]any)
	require.True(t, ok, "expected slice, got %T", v)
	require.Len(t, arr, 1)
	assert.Equal(t, "solo", arr[0].(map[string]any)["name"])
}

func TestExtractBrokenJSONReturnsParseFailure(t *testing.T) {
	raw := "```json\n{\"company\": \"Acme\", \"products\": [\n```"
	_, err := Object(raw)
	require.Error(t, err)
	var pf *ParseFailure
	require.True(t, errors.As(err, &pf))
	assert.Equal(t, raw, pf.Raw)
	assert.NotNil(t, pf.Err)
}

func TestExtractArrayFailureCarriesNoRaw(t *testing.T) {
	_, err := Array("no structured content here")
	var pf *ParseFailure
	require.ErrorAs(t, err, &pf)
	assert.Empty(t, pf.Raw)
}

func TestObjectRejectsNonObject(t *testing.T) {
	_, err := Object(`"just a string"`)
	var pf *ParseFailure
	require.ErrorAs(t, err, &pf)
}

func TestExtractUnterminatedFenceLeavesText(t *testing.T) {
	obj, err := Object("```json{\"x\": 1}")
	// unterminated fence: nothing is narrowed and the fence itself breaks parsing
	require.Error(t, err)
	assert.Nil(t, obj)
}

func TestExtractRoundTrip(t *testing.T) {
	values := []any{
		map[string]any{"name": "A", "scores": []any{1.0, 2.0}, "nested": map[string]any{"ok": true}},
		[]any{map[string]any{"x": "y"}},
	}
	for _, want := range values {
		b, err := json.Marshal(want)
		require.NoError(t, err)
		shape := ShapeObject
		if _, ok := want.([]any); ok {
			shape = ShapeArray
		}
		got, err := Extract(string(b), shape)
		require.NoError(t, err)
		assert.Equal(t, want, got)
	}
}

func TestExtractStripsBOM(t *testing.T) {
	obj, err := Object("\uFEFF{\"a\":\"b\"}")
	require.NoError(t, err)
	assert.Equal(t, "b", obj.String("a", ""))
}

func TestFieldsAccessors(t *testing.T) {
	obj, err := Object(`{
		"name": "Ops Olivia",
		"count": "7",
		"score": 12,
		"tags": ["a", 2, {"x":1}],
		"single": "solo",
		"demo": {"company_size": "50-200"},
		"pains": [{"pain": "slow"}, "skip", {"pain": "costly"}],
		"empty": ""
	}`)
	require.NoError(t, err)

	assert.Equal(t, "Ops Olivia", obj.String("name", "x"))
	assert.Equal(t, "fallback", obj.String("missing", "fallback"))
	assert.Equal(t, "12", obj.String("score", ""))
	assert.Equal(t, 7, obj.Int("count", 0))
	assert.Equal(t, 10, obj.IntIn("score", 5, 1, 10))
	assert.Equal(t, 5, obj.IntIn("missing", 5, 1, 10))
	assert.Equal(t, []string{"a", "2"}, obj.Strings("tags"))
	assert.Equal(t, []string{"solo"}, obj.Strings("single"))
	assert.Equal(t, []string{}, obj.Strings("missing"))
	assert.Equal(t, "50-200", obj.Object("demo").String("company_size", ""))
	assert.Empty(t, obj.Object("missing"))
	pains := obj.Objects("pains")
	require.Len(t, pains, 2)
	assert.Equal(t, "costly", pains[1].String("pain", ""))
	assert.Nil(t, obj.OptString("empty"))
	require.NotNil(t, obj.OptString("name"))
	assert.True(t, obj.Has("name"))
	assert.False(t, obj.Has("missing"))
}

func TestClamp(t *testing.T) {
	assert.Equal(t, 1, Clamp(-3, 1, 10))
	assert.Equal(t, 10, Clamp(42, 1, 10))
	assert.Equal(t, 6, Clamp(6, 1, 10))
}
