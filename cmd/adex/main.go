package main

import "github.com/adex-bio/adex"

func main() {
	adex.Main()
}
