// Copyright (C) 2024 Creditor Corp. Group.
// See LICENSE for copying information.

package inscriptions_test

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/BoostyLabs/ordwallet/bitcoin/ord/inscriptions"
)

func TestID(t *testing.T) {
	t.Run("NewIDFromString", func(t *testing.T) {
		tests := []struct {
			value   string
			invalid bool
		}{
			{"521f8eccffa4c41a3a7728dd012ea5a4a02feed81f41159231251ecf1e5c79dai0", false},
			{"521f8eccffa4c41a3a7728dd012ea5a4a02feed81f41159231251ecf1e5c79dai17", false},
			{"521f8eccffa4c41a3a7728ddi12ea5a4a02feed81f41159231251ecf1e5c79dai0", true},
			{"521f8eccffa4c41a3a7728dd012ea5a4a02feed81f411251ecf1e5c79dai0", true},
			{"521f8eccffa4c41a3a7728dd012ea5a4a02feed81f41159231251ecf1e5c79da", true},
			{"521f8eccffa4c41a3a7728dd012ea5a4a02feed81f41159231251ecf1e5c79daix", true},
		}
		for _, test := range tests {
			_, err := inscriptions.NewIDFromString(test.value)
			if test.invalid {
				require.ErrorIs(t, err, inscriptions.ErrInvalidID, test.value)
			} else {
				require.NoError(t, err, test.value)
			}
		}
	})

	t.Run("String", func(t *testing.T) {
		inscriptionID := "521f8eccffa4c41a3a7728dd012ea5a4a02feed81f41159231251ecf1e5c79dai0"
		id, err := inscriptions.NewIDFromString(inscriptionID)
		require.NoError(t, err)
		require.EqualValues(t, inscriptionID, id.String())
		require.Empty(t, inscriptions.ID{}.String())
	})

	t.Run("Equal", func(t *testing.T) {
		a := inscriptions.MustIDFromString("521f8eccffa4c41a3a7728dd012ea5a4a02feed81f41159231251ecf1e5c79dai0")
		b := inscriptions.MustIDFromString("521f8eccffa4c41a3a7728dd012ea5a4a02feed81f41159231251ecf1e5c79dai0")
		c := inscriptions.MustIDFromString("521f8eccffa4c41a3a7728dd012ea5a4a02feed81f41159231251ecf1e5c79dai1")

		require.True(t, a.Equal(b))
		require.False(t, a.Equal(c))
		require.False(t, a.Equal(inscriptions.ID{}))
		require.True(t, inscriptions.ID{}.Equal(inscriptions.ID{}))
	})

	t.Run("JSON", func(t *testing.T) {
		var holder struct {
			ID inscriptions.ID `json:"id"`
		}

		err := json.Unmarshal([]byte(`{"id":"521f8eccffa4c41a3a7728dd012ea5a4a02feed81f41159231251ecf1e5c79dai3"}`), &holder)
		require.NoError(t, err)
		require.EqualValues(t, 3, holder.ID.Index)

		data, err := json.Marshal(holder)
		require.NoError(t, err)
		require.JSONEq(t, `{"id":"521f8eccffa4c41a3a7728dd012ea5a4a02feed81f41159231251ecf1e5c79dai3"}`, string(data))

		err = json.Unmarshal([]byte(`{"id":"broken"}`), &holder)
		require.Error(t, err)
	})
}
