package git

import (
	"fmt"
	"os/exec"
	"regexp"
	"strings"
)

// IsGitRepository checks if the current directory is inside a git repository
func IsGitRepository() bool {
	cmd := exec.Command("git", "rev-parse", "--git-dir")
	err := cmd.Run()
	return err == nil
}

// GetRemoteURL returns the URL of the specified remote (default: origin)
func GetRemoteURL(remote string) (string, error) {
	if remote == "" {
		remote = "origin"
	}
	cmd := exec.Command("git", "remote", "get-url", remote)
	output, err := cmd.Output()
	if err != nil {
		return "", fmt.Errorf("failed to get remote URL for '%s': %w", remote, err)
	}
	return strings.TrimSpace(string(output)), nil
}

// RemoteInfo holds the components of an Azure DevOps git remote
type RemoteInfo struct {
	Organization string
	Project      string
	Repository   string
}

// ParseAzureDevOpsURL parses an Azure DevOps git URL and returns the components
// Supports formats:
//   - https://dev.azure.com/{org}/{project}/_git/{repo}
//   - https://{org}.visualstudio.com/{project}/_git/{repo}
//   - git@ssh.dev.azure.com:v3/{org}/{project}/{repo}
func ParseAzureDevOpsURL(url string) (*RemoteInfo, error) {
	url = strings.TrimSpace(url)
	if url == "" {
		return nil, fmt.Errorf("empty URL")
	}

	// HTTPS format: https://dev.azure.com/{org}/{project}/_git/{repo}
	httpsPattern := regexp.MustCompile(`https://dev\.azure\.com/([^/]+)/([^/]+)/_git/([^/]+)`)
	matches := httpsPattern.FindStringSubmatch(url)
	if len(matches) == 4 {
		return &RemoteInfo{
			Organization: matches[1],
			Project:      matches[2],
			Repository:   strings.TrimSuffix(matches[3], ".git"),
		}, nil
	}

	// Old Visual Studio format: https://{org}.visualstudio.com/{project}/_git/{repo}
	vsPattern := regexp.MustCompile(`https://([^\.]+)\.visualstudio\.com/([^/]+)/_git/([^/]+)`)
	matches = vsPattern.FindStringSubmatch(url)
	if len(matches) == 4 {
		return &RemoteInfo{
			Organization: matches[1],
			Project:      matches[2],
			Repository:   strings.TrimSuffix(matches[3], ".git"),
		}, nil
	}

	// SSH format: git@ssh.dev.azure.com:v3/{org}/{project}/{repo}
	sshPattern := regexp.MustCompile(`git@ssh\.dev\.azure\.com:v3/([^/]+)/([^/]+)/([^/]+)`)
	matches = sshPattern.FindStringSubmatch(url)
	if len(matches) == 4 {
		return &RemoteInfo{
			Organization: matches[1],
			Project:      matches[2],
			Repository:   strings.TrimSuffix(matches[3], ".git"),
		}, nil
	}

	return nil, fmt.Errorf("unable to parse Azure DevOps URL: %s", url)
}
