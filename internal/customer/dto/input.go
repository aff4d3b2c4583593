package dto

// CustomerPatch is a partial update: nil fields keep the stored value and an
// empty phone or company clears it.
type CustomerPatch struct {
	Name        *string
	Phone       *string
	CompanyName *string
}

func (p *CustomerPatch) Empty() bool {
	return p.Name == nil && p.Phone == nil && p.CompanyName == nil
}
