// Command facectl prepares training data and runs the face classifier offline.
package main

func main() {
	Execute()
}
