package state

// HighlightsOwnerGet loads the registry owner captured at deployment.
func (m *Manager) HighlightsOwnerGet() ([20]byte, bool, error) {
	var owner [20]byte
	found, err := m.KVGet(highlightsOwnerKey, &owner)
	return owner, found, err
}

// HighlightsOwnerPut records the registry owner. Written once at deployment;
// no reassignment path exists.
func (m *Manager) HighlightsOwnerPut(owner [20]byte) error {
	return m.KVPut(highlightsOwnerKey, owner)
}

// HighlightedPizzaGet loads the highlighted tip id for the submitter.
func (m *Manager) HighlightedPizzaGet(author [20]byte) (uint32, bool, error) {
	var id uint32
	found, err := m.KVGet(prefixedKey(highlightsPizzaPrefix, author[:]), &id)
	return id, found, err
}

// HighlightedPizzaPut stores the highlighted tip id for the submitter.
func (m *Manager) HighlightedPizzaPut(author [20]byte, id uint32) error {
	return m.KVPut(prefixedKey(highlightsPizzaPrefix, author[:]), id)
}

// HighlightedPizzaDelete clears the pizza highlight for the submitter.
func (m *Manager) HighlightedPizzaDelete(author [20]byte) error {
	return m.KVDelete(prefixedKey(highlightsPizzaPrefix, author[:]))
}

// HighlightedContentGet loads the highlighted content id for the author.
func (m *Manager) HighlightedContentGet(author [20]byte) (uint32, bool, error) {
	var id uint32
	found, err := m.KVGet(prefixedKey(highlightsContentPrefix, author[:]), &id)
	return id, found, err
}

// HighlightedContentPut stores the highlighted content id for the author.
func (m *Manager) HighlightedContentPut(author [20]byte, id uint32) error {
	return m.KVPut(prefixedKey(highlightsContentPrefix, author[:]), id)
}

// HighlightedContentDelete clears the content highlight for the author.
func (m *Manager) HighlightedContentDelete(author [20]byte) error {
	return m.KVDelete(prefixedKey(highlightsContentPrefix, author[:]))
}

// HighlightedListGet loads the insertion-ordered audit list of highlighted
// identities.
func (m *Manager) HighlightedListGet() ([][20]byte, error) {
	var list [][20]byte
	if _, err := m.KVGet(highlightsListKey, &list); err != nil {
		return nil, err
	}
	return list, nil
}

// HighlightedListPut persists the audit list of highlighted identities.
func (m *Manager) HighlightedListPut(list [][20]byte) error {
	return m.KVPut(highlightsListKey, list)
}
