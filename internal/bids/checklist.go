package bids

// SetChecklistItemStatus sets the status of the item with itemID in whichever
// checklist holds it.
func SetChecklistItemStatus(b Bid, itemID string, status ChecklistStatus) (Bid, error) {
	if status != ChecklistPending && status != ChecklistComplete {
		return b, ErrInvalidInput
	}
	out := b.Clone()
	found := false
	for i := range out.TechnicalQualificationChecklist {
		if out.TechnicalQualificationChecklist[i].ID == itemID {
			out.TechnicalQualificationChecklist[i].Status = status
			found = true
		}
	}
	for i := range out.ComplianceChecklist {
		if out.ComplianceChecklist[i].ID == itemID {
			out.ComplianceChecklist[i].Status = status
			found = true
		}
	}
	if !found {
		return b, ErrItemNotFound
	}
	return out, nil
}

// RemoveDocument deletes the document with docID and returns it.
func RemoveDocument(b Bid, docID string) (Bid, TechnicalDocument, error) {
	out := b.Clone()
	for i, doc := range out.TechnicalDocuments {
		if doc.ID != docID {
			continue
		}
		out.TechnicalDocuments = append(out.TechnicalDocuments[:i], out.TechnicalDocuments[i+1:]...)
		return out, doc, nil
	}
	return b, TechnicalDocument{}, ErrDocumentNotFound
}
