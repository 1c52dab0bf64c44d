package conf

import (
	"fmt"

	"github.com/khacks/phototriage-go/internal/errors"
)

// ValidateSettings checks the loaded settings for values that would make the
// service unable to start or behave incoherently at runtime.
func ValidateSettings(settings *Settings) error {
	var errs []error

	if settings.Triage.Threshold < 0 || settings.Triage.Threshold > 1 {
		errs = append(errs, fmt.Errorf("triage.threshold must be within [0, 1], got %f", settings.Triage.Threshold))
	}

	if settings.Triage.PriorityScale < 1 {
		errs = append(errs, fmt.Errorf("triage.priorityscale must be at least 1, got %d", settings.Triage.PriorityScale))
	}

	if settings.Model.Path == "" {
		errs = append(errs, fmt.Errorf("model.path must not be empty"))
	}

	if settings.Uploads.Path == "" {
		errs = append(errs, fmt.Errorf("uploads.path must not be empty"))
	}

	if !settings.Output.SQLite.Enabled && !settings.Output.MySQL.Enabled {
		errs = append(errs, fmt.Errorf("either output.sqlite or output.mysql must be enabled"))
	}

	if settings.Output.SQLite.Enabled && settings.Output.MySQL.Enabled {
		errs = append(errs, fmt.Errorf("output.sqlite and output.mysql are mutually exclusive"))
	}

	if len(errs) > 0 {
		return errors.New(errors.Join(errs...)).
			Component("conf").
			Category(errors.CategoryConfiguration).
			Build()
	}
	return nil
}
