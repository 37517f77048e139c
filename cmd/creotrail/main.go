// Creotrail is the backend and admin tool for classifying command-line
// invocations from a log corpus as dynamic or static.
//
// Usage:
//
//	# Create the schema and load a corpus
//	creotrail migrate
//	creotrail corpus import --file corpus.json
//
//	# Start the API server
//	creotrail serve --config config.yaml
//
//	# Admin statistics and a validator's history, via the API
//	creotrail stats
//	creotrail history --user-id 3 --type dynamic --format csv
//
//	# Classify commands from the terminal
//	creotrail review --user-id 3
package main

func main() {
	Execute()
}
