package rtc

// Privilege identifies a scoped capability inside a media channel. The
// numeric values are part of the wire format and must match what the media
// provider expects.
type Privilege uint16

const (
	PrivilegeJoinChannel       Privilege = 1
	PrivilegePublishAudio      Privilege = 2
	PrivilegePublishVideo      Privilege = 3
	PrivilegePublishDataStream Privilege = 4
)

// Role selects which privileges a minted token carries.
type Role string

const (
	RolePublisher  Role = "publisher"
	RoleSubscriber Role = "subscriber"
)

// PrivilegeEntry pairs a privilege with its expiry epoch-second.
type PrivilegeEntry struct {
	Kind     Privilege
	ExpireAt uint32
}

// PrivilegeSet is an insertion-ordered collection of privilege grants.
// Order matters for the encoded byte sequence, not for semantics.
type PrivilegeSet struct {
	entries []PrivilegeEntry
	index   map[Privilege]int
}

// NewPrivilegeSet returns an empty set.
func NewPrivilegeSet() *PrivilegeSet {
	return &PrivilegeSet{index: make(map[Privilege]int)}
}

// PrivilegesForRole builds the grant set for a role: every token carries
// JoinChannel, publishers additionally carry the three publish privileges,
// all sharing the same expiry.
func PrivilegesForRole(role Role, expireAt uint32) *PrivilegeSet {
	set := NewPrivilegeSet()
	set.Grant(PrivilegeJoinChannel, expireAt)
	if role == RolePublisher {
		set.Grant(PrivilegePublishAudio, expireAt)
		set.Grant(PrivilegePublishVideo, expireAt)
		set.Grant(PrivilegePublishDataStream, expireAt)
	}
	return set
}

// Grant adds or updates a privilege, keeping first-insertion order.
func (s *PrivilegeSet) Grant(kind Privilege, expireAt uint32) {
	if i, ok := s.index[kind]; ok {
		s.entries[i].ExpireAt = expireAt
		return
	}
	s.index[kind] = len(s.entries)
	s.entries = append(s.entries, PrivilegeEntry{Kind: kind, ExpireAt: expireAt})
}

// Has reports whether the privilege is present.
func (s *PrivilegeSet) Has(kind Privilege) bool {
	_, ok := s.index[kind]
	return ok
}

// ExpireAt returns the expiry for a privilege, or zero if absent.
func (s *PrivilegeSet) ExpireAt(kind Privilege) uint32 {
	if i, ok := s.index[kind]; ok {
		return s.entries[i].ExpireAt
	}
	return 0
}

// Len returns the number of grants.
func (s *PrivilegeSet) Len() int { return len(s.entries) }

// Entries returns the grants in insertion order.
func (s *PrivilegeSet) Entries() []PrivilegeEntry { return s.entries }
