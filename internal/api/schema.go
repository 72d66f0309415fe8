// internal/api/schema.go
package api

import (
	"errors"
	"time"

	"github.com/graphql-go/graphql"

	custom_errors "catalog-sync/internal/errors"
	"catalog-sync/internal/model"
	"catalog-sync/internal/syncer"
)

// resolverError adds a machine readable code to errors in the GraphQL
// response.
type resolverError struct {
	err  error
	code string
}

func (e *resolverError) Error() string { return e.err.Error() }
func (e *resolverError) Unwrap() error { return e.err }

func (e *resolverError) Extensions() map[string]interface{} {
	return map[string]interface{}{"code": e.code}
}

func classify(err error) error {
	if err == nil {
		return nil
	}
	var (
		na *custom_errors.NotAuthorized
		ue *custom_errors.UpstreamError
	)
	switch {
	case errors.As(err, &na):
		return &resolverError{err: err, code: "FORBIDDEN"}
	case errors.Is(err, custom_errors.ErrUnauthenticated):
		return &resolverError{err: err, code: "UNAUTHENTICATED"}
	case errors.Is(err, custom_errors.ErrNotFound):
		return &resolverError{err: err, code: "NOT_FOUND"}
	case errors.Is(err, custom_errors.ErrIntegrationNotInstalled):
		return &resolverError{err: err, code: "INTEGRATION_NOT_INSTALLED"}
	case errors.As(err, &ue):
		return &resolverError{err: err, code: "UPSTREAM"}
	default:
		return err
	}
}

// deferred runs fn concurrently with the request's other fields and hands
// graphql-go a thunk that waits for it.
func deferred(fn func() (any, error)) (any, error) {
	type result struct {
		v   any
		err error
	}
	ch := make(chan result, 1)
	go func() {
		v, err := fn()
		ch <- result{v, classify(err)}
	}()
	return func() (interface{}, error) {
		r := <-ch
		return r.v, r.err
	}, nil
}

func optional(s *string) any {
	if s == nil {
		return nil
	}
	return *s
}

func timestamp(t time.Time) any {
	if t.IsZero() {
		return nil
	}
	return t.UTC().Format(time.RFC3339)
}

func repositoryPointers(repos []model.Repository) []*model.Repository {
	out := make([]*model.Repository, len(repos))
	for i := range repos {
		out[i] = &repos[i]
	}
	return out
}

func accountOf(source any) (model.Account, bool) {
	switch o := source.(type) {
	case *model.User:
		return o.Account, true
	case *model.Organization:
		return o.Account, true
	}
	return model.Account{}, false
}

func accountFields() graphql.Fields {
	get := func(pick func(model.Account) any) graphql.FieldResolveFn {
		return func(p graphql.ResolveParams) (interface{}, error) {
			a, ok := accountOf(p.Source)
			if !ok {
				return nil, nil
			}
			return pick(a), nil
		}
	}
	return graphql.Fields{
		"id":        {Type: graphql.NewNonNull(graphql.ID), Resolve: get(func(a model.Account) any { return a.ExternalID })},
		"login":     {Type: graphql.NewNonNull(graphql.String), Resolve: get(func(a model.Account) any { return a.Login })},
		"avatarUrl": {Type: graphql.String, Resolve: get(func(a model.Account) any { return a.AvatarURL })},
		"url":       {Type: graphql.String, Resolve: get(func(a model.Account) any { return a.ProfileURL })},
	}
}

type schemaBuilder struct {
	service *syncer.Service

	language     *graphql.Object
	user         *graphql.Object
	organization *graphql.Object
	owner        *graphql.Union
	repository   *graphql.Object
}

func newSchema(service *syncer.Service) (graphql.Schema, error) {
	b := &schemaBuilder{service: service}

	b.language = graphql.NewObject(graphql.ObjectConfig{
		Name: "Language",
		Fields: graphql.Fields{
			"name": {Type: graphql.NewNonNull(graphql.String), Resolve: func(p graphql.ResolveParams) (interface{}, error) {
				return p.Source.(model.Language).Name, nil
			}},
			"color": {Type: graphql.String, Resolve: func(p graphql.ResolveParams) (interface{}, error) {
				if c := p.Source.(model.Language).Color; c != "" {
					return c, nil
				}
				return nil, nil
			}},
		},
	})
	b.user = graphql.NewObject(graphql.ObjectConfig{Name: "User", Fields: graphql.FieldsThunk(b.userFields)})
	b.organization = graphql.NewObject(graphql.ObjectConfig{Name: "Organization", Fields: graphql.FieldsThunk(b.organizationFields)})
	b.owner = graphql.NewUnion(graphql.UnionConfig{
		Name:  "Owner",
		Types: []*graphql.Object{b.user, b.organization},
		ResolveType: func(p graphql.ResolveTypeParams) *graphql.Object {
			switch p.Value.(type) {
			case *model.User:
				return b.user
			case *model.Organization:
				return b.organization
			}
			return nil
		},
	})
	b.repository = graphql.NewObject(graphql.ObjectConfig{Name: "Repository", Fields: graphql.FieldsThunk(b.repositoryFields)})

	query := graphql.NewObject(graphql.ObjectConfig{
		Name: "Query",
		Fields: graphql.Fields{
			"viewer": {
				Type: b.user,
				Resolve: func(p graphql.ResolveParams) (interface{}, error) {
					user, err := b.service.Viewer(p.Context)
					if err != nil {
						return nil, classify(err)
					}
					return user, nil
				},
			},
			"user": {
				Type: b.user,
				Args: graphql.FieldConfigArgument{"login": {Type: graphql.NewNonNull(graphql.String)}},
				Resolve: func(p graphql.ResolveParams) (interface{}, error) {
					user, err := b.service.User(p.Context, p.Args["login"].(string))
					if err != nil {
						return nil, classify(err)
					}
					return user, nil
				},
			},
			"organization": {
				Type: b.organization,
				Args: graphql.FieldConfigArgument{"login": {Type: graphql.NewNonNull(graphql.String)}},
				Resolve: func(p graphql.ResolveParams) (interface{}, error) {
					org, err := b.service.Organization(p.Context, p.Args["login"].(string))
					if err != nil {
						return nil, classify(err)
					}
					return org, nil
				},
			},
			"repository": {
				Type: b.repository,
				Args: graphql.FieldConfigArgument{
					"owner": {Type: graphql.NewNonNull(graphql.String)},
					"name":  {Type: graphql.NewNonNull(graphql.String)},
				},
				Resolve: func(p graphql.ResolveParams) (interface{}, error) {
					repo, err := b.service.Repository(p.Context, p.Args["owner"].(string), p.Args["name"].(string))
					if err != nil {
						return nil, classify(err)
					}
					return repo, nil
				},
			},
		},
	})

	return graphql.NewSchema(graphql.SchemaConfig{Query: query, Types: []graphql.Type{b.owner}})
}

func (b *schemaBuilder) repositoriesField() *graphql.Field {
	return &graphql.Field{
		Type: graphql.NewList(graphql.NewNonNull(b.repository)),
		Args: graphql.FieldConfigArgument{"isTemplate": {Type: graphql.Boolean}},
		Resolve: func(p graphql.ResolveParams) (interface{}, error) {
			owner, ok := p.Source.(model.Owner)
			if !ok {
				return nil, nil
			}
			var filter syncer.RepositoryFilter
			if v, ok := p.Args["isTemplate"].(bool); ok {
				filter.IsTemplate = &v
			}
			return deferred(func() (any, error) {
				repos, err := b.service.OwnerRepositories(p.Context, owner, filter)
				if err != nil {
					return nil, err
				}
				return repositoryPointers(repos), nil
			})
		},
	}
}

func (b *schemaBuilder) userFields() graphql.Fields {
	fields := accountFields()
	user := func(p graphql.ResolveParams) *model.User { return p.Source.(*model.User) }

	fields["email"] = &graphql.Field{Type: graphql.String, Resolve: func(p graphql.ResolveParams) (interface{}, error) {
		if e := user(p).Email; e != "" {
			return e, nil
		}
		return nil, nil
	}}
	fields["name"] = &graphql.Field{Type: graphql.String, Resolve: func(p graphql.ResolveParams) (interface{}, error) {
		return optional(user(p).Name), nil
	}}
	fields["bio"] = &graphql.Field{Type: graphql.String, Resolve: func(p graphql.ResolveParams) (interface{}, error) {
		return optional(user(p).Bio), nil
	}}
	fields["repositories"] = b.repositoriesField()
	fields["starredRepositories"] = &graphql.Field{
		Type: graphql.NewList(graphql.NewNonNull(b.repository)),
		Resolve: func(p graphql.ResolveParams) (interface{}, error) {
			u := *user(p)
			return deferred(func() (any, error) {
				repos, err := b.service.StarredRepositories(p.Context, u)
				if err != nil {
					return nil, err
				}
				return repositoryPointers(repos), nil
			})
		},
	}
	fields["organizations"] = &graphql.Field{
		Type: graphql.NewList(graphql.NewNonNull(b.organization)),
		Resolve: func(p graphql.ResolveParams) (interface{}, error) {
			u := *user(p)
			return deferred(func() (any, error) {
				orgs, err := b.service.UserOrganizations(p.Context, u)
				if err != nil {
					return nil, err
				}
				return orgs, nil
			})
		},
	}
	return fields
}

func (b *schemaBuilder) organizationFields() graphql.Fields {
	fields := accountFields()
	org := func(p graphql.ResolveParams) *model.Organization { return p.Source.(*model.Organization) }

	fields["email"] = &graphql.Field{Type: graphql.String, Resolve: func(p graphql.ResolveParams) (interface{}, error) {
		return optional(org(p).Email), nil
	}}
	fields["name"] = &graphql.Field{Type: graphql.String, Resolve: func(p graphql.ResolveParams) (interface{}, error) {
		return optional(org(p).Name), nil
	}}
	fields["description"] = &graphql.Field{Type: graphql.String, Resolve: func(p graphql.ResolveParams) (interface{}, error) {
		return optional(org(p).Description), nil
	}}
	fields["websiteUrl"] = &graphql.Field{Type: graphql.String, Resolve: func(p graphql.ResolveParams) (interface{}, error) {
		return optional(org(p).WebsiteURL), nil
	}}
	fields["repositories"] = b.repositoriesField()
	fields["members"] = &graphql.Field{
		Type: graphql.NewList(graphql.NewNonNull(b.user)),
		Resolve: func(p graphql.ResolveParams) (interface{}, error) {
			o := *org(p)
			return deferred(func() (any, error) {
				members, err := b.service.OrganizationMembers(p.Context, o)
				if err != nil {
					return nil, err
				}
				return members, nil
			})
		},
	}
	return fields
}

func (b *schemaBuilder) repositoryFields() graphql.Fields {
	repo := func(p graphql.ResolveParams) *model.Repository { return p.Source.(*model.Repository) }
	scalar := func(t graphql.Output, pick func(*model.Repository) any) *graphql.Field {
		return &graphql.Field{Type: t, Resolve: func(p graphql.ResolveParams) (interface{}, error) {
			return pick(repo(p)), nil
		}}
	}

	return graphql.Fields{
		"id":          scalar(graphql.NewNonNull(graphql.ID), func(r *model.Repository) any { return r.ExternalID }),
		"name":        scalar(graphql.NewNonNull(graphql.String), func(r *model.Repository) any { return r.Name }),
		"fullName":    scalar(graphql.NewNonNull(graphql.String), func(r *model.Repository) any { return r.FullName }),
		"createdAt":   scalar(graphql.String, func(r *model.Repository) any { return timestamp(r.CreatedAt) }),
		"updatedAt":   scalar(graphql.String, func(r *model.Repository) any { return timestamp(r.UpdatedAt) }),
		"isLocked":    scalar(graphql.NewNonNull(graphql.Boolean), func(r *model.Repository) any { return r.IsLocked }),
		"isArchived":  scalar(graphql.NewNonNull(graphql.Boolean), func(r *model.Repository) any { return r.IsArchived }),
		"isDisabled":  scalar(graphql.NewNonNull(graphql.Boolean), func(r *model.Repository) any { return r.IsDisabled }),
		"isFork":      scalar(graphql.NewNonNull(graphql.Boolean), func(r *model.Repository) any { return r.IsFork }),
		"isTemplate":  scalar(graphql.NewNonNull(graphql.Boolean), func(r *model.Repository) any { return r.IsTemplate }),
		"forkCount":   scalar(graphql.NewNonNull(graphql.Int), func(r *model.Repository) any { return r.ForkCount }),
		"description": scalar(graphql.String, func(r *model.Repository) any { return optional(r.Description) }),
		"url":         scalar(graphql.String, func(r *model.Repository) any { return r.URL }),
		"owner": scalar(b.owner, func(r *model.Repository) any {
			if r.Owner.Owner == nil {
				return nil
			}
			return r.Owner.Owner
		}),
		"primaryLanguage": scalar(b.language, func(r *model.Repository) any {
			if r.PrimaryLanguage == nil {
				return nil
			}
			return *r.PrimaryLanguage
		}),
		"languages": {
			Type: graphql.NewList(graphql.NewNonNull(b.language)),
			Resolve: func(p graphql.ResolveParams) (interface{}, error) {
				r := *repo(p)
				return deferred(func() (any, error) {
					langs, err := b.service.RepositoryLanguages(p.Context, r)
					if err != nil {
						return nil, err
					}
					return langs, nil
				})
			},
		},
		"starCount": {
			Type:        graphql.NewNonNull(graphql.Int),
			Description: "Stargazer count, or -1 when it has not been fetched yet.",
			Resolve: func(p graphql.ResolveParams) (interface{}, error) {
				r := *repo(p)
				return deferred(func() (any, error) {
					stars, err := b.service.StarCount(p.Context, r)
					if err != nil {
						return nil, err
					}
					return int(stars), nil
				})
			},
		},
		"stargazers": {
			Type: graphql.NewList(graphql.NewNonNull(b.user)),
			Resolve: func(p graphql.ResolveParams) (interface{}, error) {
				r := *repo(p)
				return deferred(func() (any, error) {
					users, err := b.service.Stargazers(p.Context, r)
					if err != nil {
						return nil, err
					}
					return users, nil
				})
			},
		},
	}
}
