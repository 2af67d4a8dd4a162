// Command cmsdesk is a terminal and local-API client for a headless CMS. It
// browses content models, edits entries as nested trees and diffs versions.
package main

func main() {
	Execute()
}
