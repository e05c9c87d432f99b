package page

// Size is the number of consecutive bucket indices stored in one page.
// Changing it orphans every page already on disk.
const Size = 256

// For returns the page number holding a bucket index.
// Floor division keeps exactly Size indices in every page, negative ones included.
func For(index int64) int64 {
	p := index / Size
	if index%Size != 0 && index < 0 {
		p--
	}
	return p
}

// Span returns the first and last page numbers covering [start, end].
func Span(start, end int64) (first, last int64) {
	return For(start), For(end)
}
