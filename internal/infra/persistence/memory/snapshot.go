package memory

// Snapshot is the JSON-serializable full state exchanged with durable
// backends. Buckets map entity IDs to records.
type Snapshot struct {
	Users         map[string]User                  `json:"users"`
	Organizations map[string]Organization          `json:"organizations"`
	Donations     map[string]Donation              `json:"donations"`
	Requests      map[string]Request               `json:"requests"`
	Activities    map[string]Activity              `json:"activities"`
	Registrations map[string]VolunteerRegistration `json:"registrations"`
	Matches       map[string]Match                 `json:"matches"`
	Feed          map[string]ActivityFeedItem      `json:"feed"`
	Payments      map[string]Payment               `json:"payments"`
	Notifications map[string]Notification          `json:"notifications"`
}

func snapshotFromState(st memoryState) Snapshot {
	cloned := st.clone()
	return Snapshot{
		Users:         cloned.users,
		Organizations: cloned.organizations,
		Donations:     cloned.donations,
		Requests:      cloned.requests,
		Activities:    cloned.activities,
		Registrations: cloned.registrations,
		Matches:       cloned.matches,
		Feed:          cloned.feed,
		Payments:      cloned.payments,
		Notifications: cloned.notifications,
	}
}

func stateFromSnapshot(snapshot Snapshot) memoryState {
	st := newMemoryState()
	for k, v := range snapshot.Users {
		st.users[k] = cloneUser(v)
	}
	for k, v := range snapshot.Organizations {
		st.organizations[k] = cloneOrganization(v)
	}
	for k, v := range snapshot.Donations {
		st.donations[k] = cloneDonation(v)
	}
	for k, v := range snapshot.Requests {
		st.requests[k] = cloneRequest(v)
	}
	for k, v := range snapshot.Activities {
		st.activities[k] = cloneActivity(v)
	}
	for k, v := range snapshot.Registrations {
		st.registrations[k] = cloneRegistration(v)
	}
	for k, v := range snapshot.Matches {
		st.matches[k] = cloneMatch(v)
	}
	for k, v := range snapshot.Feed {
		st.feed[k] = cloneFeedItem(v)
	}
	for k, v := range snapshot.Payments {
		st.payments[k] = clonePayment(v)
	}
	for k, v := range snapshot.Notifications {
		st.notifications[k] = cloneNotification(v)
	}
	return st
}

// ExportState clones the current store state for external persistence.
func (s *Store) ExportState() Snapshot {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return snapshotFromState(s.state)
}

// ImportState replaces the store state with the provided snapshot.
func (s *Store) ImportState(snapshot Snapshot) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.state = stateFromSnapshot(snapshot)
}
