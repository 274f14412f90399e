package github

// OwnerDoc is a partial GitHub user or org document with fields we use
type OwnerDoc struct {
	ID        int64  `json:"id"`
	Login     string `json:"login"`
	Type      string `json:"type"`
	Name      string `json:"name"`
	Blog      string `json:"blog"`
	Location  string `json:"location"`
	Email     string `json:"email"`
	Bio       string `json:"bio"`
	AvatarURL string `json:"avatar_url"`
	HTMLURL   string `json:"html_url"`
}

// RepoDoc is a partial GitHub repository document with fields we use
type RepoDoc struct {
	ID            int64    `json:"id"`
	Name          string   `json:"name"`
	FullName      string   `json:"full_name"`
	Description   string   `json:"description"`
	Homepage      string   `json:"homepage"`
	Private       bool     `json:"private"`
	Fork          bool     `json:"fork"`
	DefaultBranch string   `json:"default_branch"`
	HTMLURL       string   `json:"html_url"`
	Owner         OwnerDoc `json:"owner"`
}

// TreeEntry is one object in a recursive git tree listing
type TreeEntry struct {
	Path string `json:"path"`
	Type string `json:"type"`
	SHA  string `json:"sha"`
	Size int64  `json:"size"`
}

// treeDoc is the git tree envelope
type treeDoc struct {
	SHA       string      `json:"sha"`
	Truncated bool        `json:"truncated"`
	Tree      []TreeEntry `json:"tree"`
}

// contentDoc is the repository contents envelope for a single file
type contentDoc struct {
	Type     string `json:"type"`
	Encoding string `json:"encoding"`
	Content  string `json:"content"`
}

// Blob is one file descriptor from a repository tree snapshot
type Blob struct {
	Path string
	Size int64
	SHA  string
}
