package main

import (
	"testing"

	_ "github.com/storefront/storefront/testing"
)

func TestMainSkipsInTestMode(t *testing.T) {
	main()
}
