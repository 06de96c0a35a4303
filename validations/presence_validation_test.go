package validations

import (
	"context"
	"testing"

	pkgError "github.com/NeetCrusader/rich-presence/pkg/error"
	"github.com/NeetCrusader/rich-presence/presence"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestValidateIngestPresence(t *testing.T) {
	type testCase struct {
		name      string
		subjectID string
		snapshot  *presence.Snapshot
		wantErr   bool
	}

	cases := []testCase{
		{
			name:      "valid online snapshot",
			subjectID: "u1",
			snapshot:  &presence.Snapshot{Status: presence.StatusOnline},
			wantErr:   false,
		},
		{
			name:      "valid offline snapshot",
			subjectID: "u1",
			snapshot:  &presence.Snapshot{Status: presence.StatusOffline},
			wantErr:   false,
		},
		{
			name:      "missing payload",
			subjectID: "u1",
			snapshot:  nil,
			wantErr:   true,
		},
		{
			name:      "missing subject id",
			subjectID: "",
			snapshot:  &presence.Snapshot{Status: presence.StatusOnline},
			wantErr:   true,
		},
		{
			name:      "unknown status",
			subjectID: "u1",
			snapshot:  &presence.Snapshot{Status: "sleeping"},
			wantErr:   true,
		},
		{
			name:      "empty status",
			subjectID: "u1",
			snapshot:  &presence.Snapshot{},
			wantErr:   true,
		},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			err := ValidateIngestPresence(context.Background(), tc.subjectID, tc.snapshot)
			if !tc.wantErr {
				assert.NoError(t, err)
				return
			}
			require.Error(t, err)
			var appErr pkgError.GenericError
			require.ErrorAs(t, err, &appErr)
			assert.Equal(t, "VALIDATION_ERROR", appErr.ErrCode())
		})
	}
}
