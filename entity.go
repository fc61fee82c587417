package archstore

// entry is the registry-internal record backing one entity id: a weak
// reference to the table and row currently holding that entity's
// components, plus the version guarding against stale handles. Per the
// design note on cyclic references, a Table never points back into the
// registry's entry vector — only the registry patches entries, and only
// after a structural mutation it performed itself.
type entry struct {
	table   *Table
	row     int
	version uint32
	live    bool
}

// matches reports whether entity handle e still names the entry it was
// issued against: the entry must be occupied and versions must match.
func (en entry) matches(e Entity) bool {
	return en.live && en.version == e.Version
}
