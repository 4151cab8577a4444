// Package schema holds the typed shape of per-kind code host connection
// configuration documents, as stored in the config column of the
// external_services table and in the legacy site configuration file.
package schema

// GitHubConnection configures one connection to GitHub.com or a GitHub Enterprise instance.
type GitHubConnection struct {
	URL                         string   `json:"url,omitempty"`
	Token                       string   `json:"token,omitempty"`
	GitURLType                  string   `json:"gitURLType,omitempty"`
	Repos                       []string `json:"repos,omitempty"`
	RepositoryQuery             []string `json:"repositoryQuery,omitempty"`
	Certificate                 string   `json:"certificate,omitempty"`
	InitialRepositoryEnablement bool     `json:"initialRepositoryEnablement,omitempty"`
}

// GitLabConnection configures one connection to a GitLab instance.
type GitLabConnection struct {
	URL                         string   `json:"url,omitempty"`
	Token                       string   `json:"token,omitempty"`
	GitURLType                  string   `json:"gitURLType,omitempty"`
	ProjectQuery                []string `json:"projectQuery,omitempty"`
	Certificate                 string   `json:"certificate,omitempty"`
	InitialRepositoryEnablement bool     `json:"initialRepositoryEnablement,omitempty"`
}

// BitbucketServerConnection configures one connection to a Bitbucket Server instance.
type BitbucketServerConnection struct {
	URL                         string `json:"url,omitempty"`
	Token                       string `json:"token,omitempty"`
	Username                    string `json:"username,omitempty"`
	Password                    string `json:"password,omitempty"`
	GitURLType                  string `json:"gitURLType,omitempty"`
	Certificate                 string `json:"certificate,omitempty"`
	InitialRepositoryEnablement bool   `json:"initialRepositoryEnablement,omitempty"`
}

// AWSCodeCommitConnection configures one connection to AWS CodeCommit in a single region.
type AWSCodeCommitConnection struct {
	Region                      string `json:"region,omitempty"`
	AccessKeyID                 string `json:"accessKeyID,omitempty"`
	SecretAccessKey             string `json:"secretAccessKey,omitempty"`
	InitialRepositoryEnablement bool   `json:"initialRepositoryEnablement,omitempty"`
}

// GitoliteConnection configures one connection to a Gitolite host.
type GitoliteConnection struct {
	Host      string `json:"host,omitempty"`
	Prefix    string `json:"prefix,omitempty"`
	Blacklist string `json:"blacklist,omitempty"`
}

// PhabricatorConnection configures one connection to a Phabricator instance.
type PhabricatorConnection struct {
	URL   string             `json:"url,omitempty"`
	Token string             `json:"token,omitempty"`
	Repos []*PhabricatorRepo `json:"repos,omitempty"`
}

type PhabricatorRepo struct {
	Path     string `json:"path,omitempty"`
	Callsign string `json:"callsign,omitempty"`
}

// SiteConfiguration is the legacy single-document configuration format.
// Before per-row external service records existed, every code host
// connection lived embedded in this one document.
type SiteConfiguration struct {
	ExternalServices bool `json:"externalServices,omitempty"`

	AwsCodeCommit   []*AWSCodeCommitConnection   `json:"awsCodeCommit,omitempty"`
	BitbucketServer []*BitbucketServerConnection `json:"bitbucketServer,omitempty"`
	Github          []*GitHubConnection          `json:"github,omitempty"`
	Gitlab          []*GitLabConnection          `json:"gitlab,omitempty"`
	Gitolite        []*GitoliteConnection        `json:"gitolite,omitempty"`
	Phabricator     []*PhabricatorConnection     `json:"phabricator,omitempty"`
}
