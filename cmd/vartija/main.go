// Vartija - AWS security posture auditor
// Scan. Report. Fix.
package main

func main() {
	Execute()
}
