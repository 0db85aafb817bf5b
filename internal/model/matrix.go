package model

// Matrix is the declared set of build dimensions. The cross-product of
// Runtimes and OSes, plus the Includes, generates the job specifications.
type Matrix struct {
	Runtimes []string
	OSes     []string
	Includes []Include
}

// Include is one explicit extra (runtime, os) pair appended outside the
// cross-product.
type Include struct {
	Runtime string
	OS      string
}
