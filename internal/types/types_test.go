package types

import (
	"encoding/json"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFlexListAcceptsObjectOrArray(t *testing.T) {
	type item struct {
		Name string `json:"name"`
	}
	var one FlexList[item]
	require.NoError(t, json.Unmarshal([]byte(`{"name":"Bank Statement"}`), &one))
	assert.Equal(t, []item{{Name: "Bank Statement"}}, one.Slice())

	var many FlexList[item]
	require.NoError(t, json.Unmarshal([]byte(`[{"name":"a"},{"name":"b"}]`), &many))
	assert.Len(t, many, 2)

	var none FlexList[item]
	require.NoError(t, json.Unmarshal([]byte(`null`), &none))
	assert.Empty(t, none)
}

func TestFlexUint64(t *testing.T) {
	var v FlexUint64
	require.NoError(t, json.Unmarshal([]byte(`"7"`), &v))
	assert.Equal(t, uint64(7), v.Uint64())
	require.NoError(t, json.Unmarshal([]byte(`8`), &v))
	assert.Equal(t, uint64(8), v.Uint64())
	assert.Error(t, json.Unmarshal([]byte(`"x"`), &v))
	assert.Error(t, json.Unmarshal([]byte(`true`), &v))
	assert.Error(t, json.Unmarshal([]byte(`-1`), &v))
	assert.Error(t, json.Unmarshal([]byte(`null`), &v))

	out, err := json.Marshal(FlexUint64(42))
	require.NoError(t, err)
	assert.JSONEq(t, `"42"`, string(out))
}

func TestFlexDate(t *testing.T) {
	var d FlexDate
	require.NoError(t, json.Unmarshal([]byte(`"2026-03-02"`), &d))
	assert.Equal(t, time.Date(2026, 3, 2, 0, 0, 0, 0, time.UTC), d.Time())

	require.NoError(t, json.Unmarshal([]byte(`"2026-03-02T13:45:00+11:00"`), &d))
	assert.Equal(t, time.Date(2026, 3, 2, 0, 0, 0, 0, time.UTC), d.Time())

	out, err := json.Marshal(d)
	require.NoError(t, err)
	assert.JSONEq(t, `"2026-03-02"`, string(out))

	assert.Error(t, json.Unmarshal([]byte(`"02/03/2026"`), &d))
	assert.Error(t, json.Unmarshal([]byte(`20260302`), &d))

	var nilDate *FlexDate
	assert.Nil(t, nilDate.Ptr())
}

func TestCustomError(t *testing.T) {
	cause := errors.New("expired")
	err := NewError(401, "auth.club", "Invalid passcode for %s.", "Riverside FC").Wrap(cause)
	assert.Equal(t, "401: Invalid passcode for Riverside FC. [type: auth.club]", err.Error())
	assert.ErrorIs(t, err, cause)

	wrapped := fmt.Errorf("login: %w", err)
	ce, ok := AsCustomError(wrapped)
	require.True(t, ok)
	assert.Equal(t, 401, ce.Code)

	_, ok = AsCustomError(cause)
	assert.False(t, ok)
}
