// cmd/autoconfig/main.go
//
// Mail autoconfig service – CLI entry point.
//
// Usage
// -----
//
//	# Serve clientConfig documents (default command)
//	autoconfig serve
//
//	# Print the document a client would receive
//	autoconfig resolve alice@example.com
//
//	# Print the resolved context as JSON
//	autoconfig resolve alice@example.com --json
//
//	# Resolve one address for every configured domain and user
//	autoconfig check
//
// Configuration is discovered from conf/autoconfig.yaml (see
// internal/config), or from the directory named by --root.
package main

func main() {
	Execute()
}
