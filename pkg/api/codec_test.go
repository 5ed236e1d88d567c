package api

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"google.golang.org/protobuf/types/known/emptypb"
)

func TestCodec(t *testing.T) {
	codec := Codec{}
	assert.Equal(t, "json", codec.Name())

	t.Run("plain messages", func(t *testing.T) {
		data, err := codec.Marshal(&RecordExpenseRequest{
			GroupID:      "g1",
			Description:  "Dinner",
			Amount:       "30.00",
			PaidBy:       "u1",
			Participants: []string{"u1", "u2"},
		})
		require.NoError(t, err)
		assert.JSONEq(t, `{"group_id":"g1","description":"Dinner","amount":"30.00","paid_by":"u1","participants":["u1","u2"]}`, string(data))

		var got RecordExpenseRequest
		require.NoError(t, codec.Unmarshal(data, &got))
		assert.Equal(t, []string{"u1", "u2"}, got.Participants)
	})

	t.Run("unknown fields are rejected", func(t *testing.T) {
		var got GetExpenseRequest
		err := codec.Unmarshal([]byte(`{"expense_id":"e1","bogus":true}`), &got)
		assert.Error(t, err)
	})

	t.Run("empty body decodes to zero value", func(t *testing.T) {
		var got ListRecentExpensesRequest
		require.NoError(t, codec.Unmarshal(nil, &got))
		assert.Zero(t, got.Limit)
	})

	t.Run("protobuf well-known types", func(t *testing.T) {
		data, err := codec.Marshal(&emptypb.Empty{})
		require.NoError(t, err)
		assert.Equal(t, "{}", string(data))

		require.NoError(t, codec.Unmarshal([]byte(`{}`), &emptypb.Empty{}))
	})
}
