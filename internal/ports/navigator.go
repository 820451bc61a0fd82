package ports

// Navigator issues client-side navigations. Redirecting to the current target
// again has no additional effect.
type Navigator interface {
	Redirect(path string)
}
