package service

import (
	"leakhound/internal/services/gather/domain"

	gh "leakhound/internal/adapters/github"
)

// ownerView projects a remote owner onto the domain shape
func ownerView(o *gh.Owner) domain.Owner {
	doc := o.Doc()
	kind := domain.KindUser
	if o.IsOrganization() {
		kind = domain.KindOrganization
	}
	return domain.Owner{
		Login:       doc.Login,
		Kind:        kind,
		DisplayName: o.DisplayName(),
		URL:         doc.HTMLURL,
		AvatarURL:   doc.AvatarURL,
		Email:       doc.Email,
		Location:    doc.Location,
		Bio:         doc.Bio,
	}
}

// repoView projects a remote repository onto the domain shape
func repoView(r *gh.Repository) domain.Repository {
	doc := r.Doc()
	return domain.Repository{
		OwnerLogin:    doc.Owner.Login,
		Name:          doc.Name,
		FullName:      doc.FullName,
		Description:   doc.Description,
		Homepage:      doc.Homepage,
		HTMLURL:       doc.HTMLURL,
		DefaultBranch: r.DefaultBranch(),
		Private:       doc.Private,
	}
}

func repoViews(repos []*gh.Repository) []domain.Repository {
	out := make([]domain.Repository, 0, len(repos))
	for _, r := range repos {
		out = append(out, repoView(r))
	}
	return out
}
