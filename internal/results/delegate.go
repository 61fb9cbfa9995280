package results

// Delegate receives the row changes of a list, bracketed by BeginUpdate and EndUpdate.
//
// Delete and Update indexes refer to the list before the batch, Insert indexes to
// the list after it.
type Delegate interface {
	BeginUpdate()
	Insert(i int)
	Delete(i int)
	Update(i int)
	Move(from, to int)
	EndUpdate()
}

// Replay sends changes to d, one call per change, between BeginUpdate and EndUpdate.
func Replay(d Delegate, changes ChangeSet) {
	d.BeginUpdate()
	for _, c := range changes {
		switch c.Kind {
		case Insert:
			d.Insert(c.To)
		case Delete:
			d.Delete(c.From)
		case Update:
			d.Update(c.From)
		case Move:
			d.Move(c.From, c.To)
		}
	}
	d.EndUpdate()
}
