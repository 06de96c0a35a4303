package validations

import (
	"context"

	"github.com/NeetCrusader/rich-presence/presence"
	pkgError "github.com/NeetCrusader/rich-presence/pkg/error"
	validation "github.com/go-ozzo/ozzo-validation/v4"
)

var validStatuses = []any{
	presence.StatusOnline,
	presence.StatusIdle,
	presence.StatusDoNotDisturb,
	presence.StatusOffline,
}

// ValidateIngestPresence checks a webhook ingest payload before it reaches
// any store.
func ValidateIngestPresence(ctx context.Context, subjectID string, snapshot *presence.Snapshot) error {
	if snapshot == nil {
		return pkgError.ValidationError("presence payload is required")
	}

	err := validation.Validate(subjectID, validation.Required)
	if err != nil {
		return pkgError.ValidationError("userId: " + err.Error())
	}

	err = validation.ValidateStructWithContext(ctx, snapshot,
		validation.Field(&snapshot.Status, validation.Required, validation.In(validStatuses...)),
	)
	if err != nil {
		return pkgError.ValidationError(err.Error())
	}

	return nil
}
