package docker

import (
	"fmt"
	"strings"
	"time"

	"github.com/mmr-tortoise/sikraken-assist/internal/model"
)

// Label keys attached to every container the docker backend creates.
// All keys share the "sikraken." prefix so they do not collide with labels
// set by the image or by other tools.
const (
	// LabelPrefix is the common prefix for all sikraken-assist labels.
	LabelPrefix = "sikraken."

	// LabelManagedBy identifies containers created by sikraken-assist.
	// Key: "sikraken.managed-by", Value: always "sikraken-assist".
	LabelManagedBy = LabelPrefix + "managed-by"

	// LabelRunID stores the ULID of the run.
	LabelRunID = LabelPrefix + "run-id"

	// LabelParams stores the bracketed parameters, e.g. "[3,27]".
	LabelParams = LabelPrefix + "params"

	// LabelWorkdir stores the host directory that was mounted.
	LabelWorkdir = LabelPrefix + "workdir"

	// LabelCreatedAt stores the RFC3339 creation timestamp in UTC.
	LabelCreatedAt = LabelPrefix + "created-at"
)

// ManagedByValue is the constant value for the LabelManagedBy label.
const ManagedByValue = "sikraken-assist"

// BuildLabels constructs the label map for a container running req.
func BuildLabels(runID string, params model.Params, workdir string, createdAt time.Time) map[string]string {
	return map[string]string{
		LabelManagedBy: ManagedByValue,
		LabelRunID:     runID,
		LabelParams:    params.String(),
		LabelWorkdir:   workdir,
		// Using UTC keeps the label independent of the host's timezone.
		LabelCreatedAt: createdAt.UTC().Format(time.RFC3339),
	}
}

// ParseLabels reconstructs a ManagedContainer's run metadata from labels.
// ContainerID, ContainerName, Image, and Status come from the container
// itself and are left empty.
func ParseLabels(labels map[string]string) (*model.ManagedContainer, error) {
	requiredKeys := []string{
		LabelManagedBy,
		LabelRunID,
		LabelParams,
		LabelCreatedAt,
	}

	var missing []string
	for _, key := range requiredKeys {
		if _, ok := labels[key]; !ok {
			missing = append(missing, key)
		}
	}
	if len(missing) > 0 {
		return nil, fmt.Errorf("missing required Docker labels: %s", strings.Join(missing, ", "))
	}

	if labels[LabelManagedBy] != ManagedByValue {
		return nil, fmt.Errorf(
			"label %s has unexpected value %q (expected %q)",
			LabelManagedBy, labels[LabelManagedBy], ManagedByValue,
		)
	}

	createdAt, err := time.Parse(time.RFC3339, labels[LabelCreatedAt])
	if err != nil {
		return nil, fmt.Errorf("invalid label %s: %w", LabelCreatedAt, err)
	}

	return &model.ManagedContainer{
		RunID:     labels[LabelRunID],
		Params:    labels[LabelParams],
		CreatedAt: createdAt,
	}, nil
}

// FilterLabel returns the "key=value" label filter selecting containers
// managed by sikraken-assist.
func FilterLabel() string {
	return LabelManagedBy + "=" + ManagedByValue
}
