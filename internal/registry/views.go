package registry

import (
	"context"
	"fmt"

	"github.com/mitaan/mitaan/internal/contentapi"
	"github.com/mitaan/mitaan/internal/models"
)

// recordPtr constrains P to be *T and a models.Record.
type recordPtr[T any] interface {
	*T
	models.Record
}

func asRecords[T any, P recordPtr[T]](items []T) []models.Record {
	out := make([]models.Record, len(items))
	for i := range items {
		out[i] = P(&items[i])
	}
	return out
}

func cast[T any, P recordPtr[T]](rec models.Record) (*T, error) {
	p, ok := rec.(P)
	if !ok || p == nil {
		var zero T
		return nil, fmt.Errorf("record has type %T, want %T", rec, &zero)
	}
	return (*T)(p), nil
}

// crud builds a fully editable collection over a typed resource.
func crud[T any, P recordPtr[T]](res func(*contentapi.Client) contentapi.Collection[T], newRecord func(Defaults) P) *Collection {
	return &Collection{
		List: func(ctx context.Context, c *contentapi.Client, _ string) ([]models.Record, error) {
			items, err := res(c).List(ctx, contentapi.Filter{})
			if err != nil {
				return nil, err
			}
			return asRecords[T, P](items), nil
		},
		New: func(d Defaults) models.Record {
			return newRecord(d)
		},
		Create: func(ctx context.Context, c *contentapi.Client, rec models.Record) (models.Record, error) {
			v, err := cast[T, P](rec)
			if err != nil {
				return nil, err
			}
			out, err := res(c).Create(ctx, v)
			if err != nil {
				return nil, err
			}
			return P(out), nil
		},
		Update: func(ctx context.Context, c *contentapi.Client, id string, rec models.Record) (models.Record, error) {
			v, err := cast[T, P](rec)
			if err != nil {
				return nil, err
			}
			out, err := res(c).Update(ctx, id, v)
			if err != nil {
				return nil, err
			}
			return P(out), nil
		},
		Delete: func(ctx context.Context, c *contentapi.Client, id string) error {
			return res(c).Delete(ctx, id)
		},
	}
}

// readDelete builds a collection that can only be listed and pruned.
func readDelete[T any, P recordPtr[T]](res func(*contentapi.Client) contentapi.Collection[T]) *Collection {
	full := crud[T, P](res, nil)
	return &Collection{List: full.List, Delete: full.Delete}
}

func single[T any, P recordPtr[T]](res func(*contentapi.Client) contentapi.Singleton[T]) *Singleton {
	return &Singleton{
		Get: func(ctx context.Context, c *contentapi.Client) (models.Record, error) {
			out, err := res(c).Get(ctx)
			if err != nil {
				return nil, err
			}
			return P(out), nil
		},
		Update: func(ctx context.Context, c *contentapi.Client, rec models.Record) (models.Record, error) {
			v, err := cast[T, P](rec)
			if err != nil {
				return nil, err
			}
			out, err := res(c).Update(ctx, v)
			if err != nil {
				return nil, err
			}
			return P(out), nil
		},
	}
}

// articles builds a collection over the article resource scoped to one
// category. Lists are filtered by category and creates carry it.
func articles(category models.Category) *Collection {
	full := crud[models.Article, *models.Article](
		(*contentapi.Client).Articles,
		func(d Defaults) *models.Article {
			return &models.Article{
				Category: string(category),
				Author:   d.Author,
				Date:     d.Today.Format(DateLayout),
				Language: models.LanguageEnglish,
			}
		},
	)
	return &Collection{
		List: func(ctx context.Context, c *contentapi.Client, lang string) ([]models.Record, error) {
			items, err := c.Articles().List(ctx, contentapi.Filter{Category: string(category), Language: lang})
			if err != nil {
				return nil, err
			}
			return asRecords[models.Article, *models.Article](items), nil
		},
		New: full.New,
		Create: func(ctx context.Context, c *contentapi.Client, rec models.Record) (models.Record, error) {
			a, err := cast[models.Article, *models.Article](rec)
			if err != nil {
				return nil, err
			}
			draft := *a
			draft.Category = string(category)
			return full.Create(ctx, c, &draft)
		},
		Update: full.Update,
		Delete: full.Delete,
	}
}

// Default returns the registry of every console view in sidebar order.
func Default() *Registry {
	r, err := New(
		&View{Key: ViewEditorials, Label: "Editorials", Section: SectionPensieve, Entity: models.EntityEditorial,
			Form: FormArticle, Category: models.CategoryEditorial, Collection: articles(models.CategoryEditorial)},
		&View{Key: ViewOpinions, Label: "Opinions", Section: SectionPensieve, Entity: models.EntityOpinion,
			Form: FormArticle, Category: models.CategoryOpinion, Collection: articles(models.CategoryOpinion)},
		&View{Key: ViewStories, Label: "Stories", Section: SectionPensieve, Entity: models.EntityStory,
			Form: FormStory, Category: models.CategoryStory, Collection: articles(models.CategoryStory)},
		&View{Key: ViewArchives, Label: "Archives", Section: SectionPensieve, Entity: models.EntityArchive,
			Form: FormArticle, Category: models.CategoryArchive, Collection: articles(models.CategoryArchive)},

		&View{Key: ViewHeadlines, Label: "Headlines", Section: SectionSystem, Entity: models.EntityHeadline, Form: FormHeadline,
			Collection: crud((*contentapi.Client).Headlines, func(Defaults) *models.Headline {
				return &models.Headline{Time: "Now"}
			})},
		&View{Key: ViewTimeline, Label: "Journey", Section: SectionSystem, Entity: models.EntityTimelineItem, Form: FormTimeline,
			Collection: crud((*contentapi.Client).Timeline, func(Defaults) *models.TimelineItem {
				return &models.TimelineItem{}
			})},
		&View{Key: ViewPhotos, Label: "Gallery", Section: SectionSystem, Entity: models.EntityPhoto, Form: FormPhoto,
			Collection: crud((*contentapi.Client).Photos, func(Defaults) *models.Photo {
				return &models.Photo{Category: "Field"}
			})},
		&View{Key: ViewImpacts, Label: "Impacts", Section: SectionSystem, Entity: models.EntityImpact, Form: FormImpact,
			Collection: crud((*contentapi.Client).Impacts, func(Defaults) *models.ImpactStat {
				return &models.ImpactStat{Icon: "Users", Color: "bg-primary"}
			})},
		&View{Key: ViewEvents, Label: "Global Desk", Section: SectionSystem, Entity: models.EntityGlobalEvent, Form: FormEvent,
			Collection: crud((*contentapi.Client).GlobalEvents, func(Defaults) *models.GlobalEvent {
				return &models.GlobalEvent{}
			})},
		&View{Key: ViewAboutHero, Label: "About Hero", Section: SectionSystem, Entity: models.EntityAboutConfig, Form: FormAbout,
			Singleton: single((*contentapi.Client).AboutConfig)},
		&View{Key: ViewPerspectives, Label: "Perspectives", Section: SectionSystem, Entity: models.EntityPerspective, Form: FormPerspective,
			Collection: readDelete((*contentapi.Client).Perspectives)},
		&View{Key: ViewContactMessages, Label: "Inquiries", Section: SectionSystem, Entity: models.EntityContactMessage, Form: FormContact,
			Collection: readDelete((*contentapi.Client).ContactMessages)},
		&View{Key: ViewArchiveBooks, Label: "Intellectual", Section: SectionSystem, Entity: models.EntityArchiveBook, Form: FormBook,
			Collection: crud((*contentapi.Client).ArchiveBooks, func(Defaults) *models.ArchiveBook {
				return &models.ArchiveBook{}
			})},
		&View{Key: ViewAnchors, Label: "Global Anchors", Section: SectionSystem, Entity: models.EntityGlobalAnchor, Form: FormAnchor,
			Collection: crud((*contentapi.Client).GlobalAnchors, func(Defaults) *models.GlobalAnchor {
				return &models.GlobalAnchor{Icon: "Award"}
			})},
		&View{Key: ViewAds, Label: "Advertisements", Section: SectionSystem, Entity: models.EntityAdvertisement, Form: FormAd,
			Collection: crud((*contentapi.Client).Ads, func(Defaults) *models.Advertisement {
				return &models.Advertisement{Type: models.AdTypeBanner, IsActive: true, Position: "right"}
			})},
		&View{Key: ViewDonations, Label: "Donations", Section: SectionSystem, Entity: models.EntityDonationConfig, Form: FormDonation,
			Singleton: single((*contentapi.Client).DonationConfig)},
	)
	if err != nil {
		panic(err)
	}
	return r
}
