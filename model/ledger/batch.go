package ledger

// Transaction is a single signed state transition request.
type Transaction struct {
	Header    []byte
	Payload   []byte
	Signature []byte
}

// ID returns the content hash of the transaction.
func (t *Transaction) ID() Identifier {
	return MakeID(t)
}

// Batch is a group of transactions that are committed atomically. Batches are
// treated as immutable once they entered the ingestion path.
type Batch struct {
	Transactions    []*Transaction
	SignerPublicKey []byte
	Signature       []byte
}

// ID returns the content hash of the batch.
func (b *Batch) ID() Identifier {
	return MakeID(b)
}

// TransactionIDs returns the IDs of the batch's transactions in order.
func (b *Batch) TransactionIDs() []Identifier {
	ids := make([]Identifier, 0, len(b.Transactions))
	for _, tx := range b.Transactions {
		ids = append(ids, tx.ID())
	}
	return ids
}

// BatchIDs returns the IDs of the given batches in order.
func BatchIDs(batches []*Batch) []Identifier {
	ids := make([]Identifier, 0, len(batches))
	for _, batch := range batches {
		ids = append(ids, batch.ID())
	}
	return ids
}
