package storage

import (
	"fmt"
	"testing"

	"github.com/pixil98/go-testutil"
)

// baitSpec is a minimal asset payload: bait needs a type.
type baitSpec struct {
	BaitType string `json:"bait_type"`
}

func (s *baitSpec) Validate() error {
	if s.BaitType == "" {
		return fmt.Errorf("bait_type is required")
	}
	return nil
}

func TestAsset_Validate(t *testing.T) {
	worm := &baitSpec{BaitType: "worm"}

	tests := map[string]struct {
		asset   Asset[*baitSpec]
		expErrs []string
	}{
		"valid": {
			asset: Asset[*baitSpec]{Version: 1, Identifier: "red-wiggler", Spec: worm},
		},
		"digits and dashes": {
			asset: Asset[*baitSpec]{Version: 1, Identifier: "lure-2000", Spec: worm},
		},
		"version unset": {
			asset:   Asset[*baitSpec]{Identifier: "red-wiggler", Spec: worm},
			expErrs: []string{"version must be set"},
		},
		"version from a newer build": {
			asset:   Asset[*baitSpec]{Version: CurrentVersion + 1, Identifier: "red-wiggler", Spec: worm},
			expErrs: []string{"version 2 is newer than supported version 1"},
		},
		"id unset": {
			asset:   Asset[*baitSpec]{Version: 1, Spec: worm},
			expErrs: []string{"id must be set"},
		},
		"id with underscore": {
			asset:   Asset[*baitSpec]{Version: 1, Identifier: "red_wiggler", Spec: worm},
			expErrs: []string{"id must be alphanumeric"},
		},
		"id with space": {
			asset:   Asset[*baitSpec]{Version: 1, Identifier: "red wiggler", Spec: worm},
			expErrs: []string{"id must be alphanumeric"},
		},
		"spec missing": {
			asset:   Asset[*baitSpec]{Version: 1, Identifier: "red-wiggler"},
			expErrs: []string{"spec must be set"},
		},
		"spec invalid": {
			asset:   Asset[*baitSpec]{Version: 1, Identifier: "red-wiggler", Spec: &baitSpec{}},
			expErrs: []string{"bait_type is required"},
		},
		"every problem reported": {
			asset:   Asset[*baitSpec]{Identifier: "red wiggler", Spec: &baitSpec{}},
			expErrs: []string{"version must be set", "id must be alphanumeric", "bait_type is required"},
		},
	}

	for name, tt := range tests {
		t.Run(name, func(t *testing.T) {
			err := tt.asset.Validate()
			if len(tt.expErrs) == 0 {
				if err != nil {
					t.Errorf("unexpected error: %v", err)
				}
				return
			}
			for _, exp := range tt.expErrs {
				testutil.AssertErrorContains(t, err, exp)
			}
		})
	}
}

func TestIdentifier_String(t *testing.T) {
	testutil.AssertEqual(t, "id", Identifier("carbon-rod-2").String(), "carbon-rod-2")
	testutil.AssertEqual(t, "asset id", (&Asset[*baitSpec]{Identifier: "worm"}).Id(), Identifier("worm"))
}
