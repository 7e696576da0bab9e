package session

import "context"

// Snapshot is the guard-relevant view of a Store taken at one instant.
type Snapshot struct {
	TenantToken     string
	Role            string
	Center          string
	SuperAdminToken string
	IsSuperAdmin    bool
	SuperAdminUser  string
}

// Read collects a Snapshot.  The first backend error aborts the read.
func Read(ctx context.Context, s Store) (Snapshot, error) {
	var snap Snapshot
	fields := []struct {
		key string
		dst *string
	}{
		{KeyTenantToken, &snap.TenantToken},
		{KeyRole, &snap.Role},
		{KeyCenter, &snap.Center},
		{KeySuperAdminToken, &snap.SuperAdminToken},
		{KeySuperAdminUsername, &snap.SuperAdminUser},
	}
	for _, f := range fields {
		v, _, err := s.Get(ctx, f.key)
		if err != nil {
			return Snapshot{}, err
		}
		*f.dst = v
	}

	flag, _, err := s.Get(ctx, KeyIsSuperAdmin)
	if err != nil {
		return Snapshot{}, err
	}
	snap.IsSuperAdmin = flag == "true"
	return snap, nil
}
