package consts

type SortOrder bool

const (
	Ascending  = SortOrder(false)
	Descending = SortOrder(true)
)

func (o SortOrder) String() string {
	if o == Descending {
		return "desc"
	}
	return "asc"
}
