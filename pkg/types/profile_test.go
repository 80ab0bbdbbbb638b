package types

import (
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestProfileDuplicate(t *testing.T) {
	created := time.Date(2024, 1, 2, 3, 4, 5, 0, time.UTC)
	now := time.Date(2025, 6, 7, 8, 9, 10, 0, time.UTC)

	tests := []struct {
		name   string
		source ControllerProfile
	}{
		{
			name: "active source yields inactive copy",
			source: ControllerProfile{
				ID: 7, Name: "Racer", Description: "tight triggers", IsActive: true,
				CreatedAt: created, UpdatedAt: created,
			},
		},
		{
			name: "inactive source stays inactive",
			source: ControllerProfile{
				ID: 3, Name: "Shooter", Description: "", IsActive: false,
				CreatedAt: created, UpdatedAt: created,
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			src := tt.source
			dup := src.Duplicate("Copy", now)

			assert.Equal(t, int64(0), dup.ID)
			assert.False(t, dup.Persisted())
			assert.Equal(t, "Copy", dup.Name)
			assert.Equal(t, src.Description, dup.Description)
			assert.False(t, dup.IsActive)
			assert.Equal(t, now, dup.CreatedAt)
			assert.Equal(t, now, dup.UpdatedAt)

			// Source untouched.
			assert.Equal(t, tt.source, src)
		})
	}
}

func TestProfileValidate(t *testing.T) {
	tests := []struct {
		name    string
		profile *ControllerProfile
		wantErr error
	}{
		{
			name:    "valid profile",
			profile: &ControllerProfile{Name: "Bolt Racer"},
		},
		{
			name:    "empty name",
			profile: &ControllerProfile{Name: ""},
			wantErr: ErrInvalidName,
		},
		{
			name:    "name too long",
			profile: &ControllerProfile{Name: strings.Repeat("x", 129)},
			wantErr: ErrInvalidName,
		},
		{
			name:    "description too long",
			profile: &ControllerProfile{Name: "ok", Description: strings.Repeat("d", 1025)},
			wantErr: ErrInvalidData,
		},
		{
			name:    "nil profile",
			profile: nil,
			wantErr: ErrInvalidData,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.profile.Validate()
			if tt.wantErr == nil {
				assert.NoError(t, err)
				return
			}
			assert.ErrorIs(t, err, tt.wantErr)
		})
	}
}
