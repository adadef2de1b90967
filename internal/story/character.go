package story

import (
	"context"
	"strings"

	"loreweave/internal/sources"
)

// GetCharacterData merges the wiki page, the AniList character and the
// Jikan character for name. arcContext mentioning a timeskip or a war marks
// every ability as enhanced during that arc.
func (s *Service) GetCharacterData(ctx context.Context, name, source, arcContext string) (*CharacterData, error) {
	key := Key("character", source, name, arcContext)
	return cached(ctx, s, key, func(ctx context.Context) (*CharacterData, bool, error) {
		var (
			wiki  *sources.WikiCharacter
			media *sources.AniListCharacter
			anime *sources.CharacterInfo
		)
		f := s.fanout("character")
		if s.wiki != nil {
			f.run("wiki", func() (err error) {
				wiki, err = s.wiki.GetCharacterInfo(ctx, source, name)
				return err
			})
		}
		if s.media != nil {
			f.run("anilist", func() (err error) {
				media, err = s.media.GetCharacterInfo(ctx, name)
				return err
			})
		}
		if s.anime != nil {
			f.run("jikan", func() (err error) {
				anime, err = s.anime.GetCharacterInfo(ctx, name)
				return err
			})
		}
		allFailed := f.wait()

		data, err := guardMerge("character", func() *CharacterData {
			data := mergeCharacter(name, source, wiki, media, anime)
			enhanceAbilities(data, arcContext)
			return data
		})
		if err != nil {
			return nil, false, err
		}
		return data, !allFailed, nil
	})
}

func mergeCharacter(name, source string, wiki *sources.WikiCharacter, media *sources.AniListCharacter, anime *sources.CharacterInfo) *CharacterData {
	c := &CharacterData{Source: source, Alive: true}

	if wiki != nil {
		c.Sources = append(c.Sources, "wiki")
		fill(&c.Name, wiki.Name)
		fill(&c.Appearance.Description, wiki.Appearance)
		fill(&c.Appearance.Height, wiki.Height)
		fill(&c.Personality, wiki.Personality)
		fill(&c.Background, wiki.History)
		fill(&c.Occupation, wiki.Occupation)
		fill(&c.Residence, wiki.Residence)
		fill(&c.Age, wiki.Age)
		fill(&c.Status, wiki.Status)
		fill(&c.FirstAppearance, wiki.FirstAppearance)
		fill(&c.WikiURL, wiki.URL)
		c.Abilities = concat(c.Abilities, wiki.Abilities...)
		c.Relationships = concat(c.Relationships, wiki.Relationships...)
		c.Affiliations = concat(c.Affiliations, wiki.Affiliations...)
		c.Aliases = addNames(c.Aliases, wiki.Aliases...)
	}
	if media != nil {
		c.Sources = append(c.Sources, "anilist")
		fill(&c.Name, media.Name)
		fill(&c.Age, media.Age)
		fill(&c.Gender, media.Gender)
		fill(&c.Appearance.ImageURL, media.ImageURL)
		c.Aliases = addNames(c.Aliases, media.NativeName)
		c.Aliases = addNames(c.Aliases, media.Alternative...)
		c.Media = concat(c.Media, media.Media...)
	}
	if anime != nil {
		c.Sources = append(c.Sources, "jikan")
		fill(&c.Name, anime.Name)
		fill(&c.Appearance.ImageURL, anime.ImageURL)
		c.Aliases = addNames(c.Aliases, anime.NameKanji)
		c.Aliases = addNames(c.Aliases, anime.Nicknames...)
	}

	var about, mediaDescription, summary string
	if anime != nil {
		about = anime.About
	}
	if media != nil {
		mediaDescription = media.Description
	}
	if wiki != nil {
		summary = wiki.Summary
	}
	fill(&c.Description, about, mediaDescription, summary)
	fill(&c.Appearance.Description, about, mediaDescription)
	fill(&c.Name, name)

	status := strings.ToLower(c.Status)
	if strings.Contains(status, "deceased") || strings.Contains(status, "dead") {
		c.Alive = false
	}

	c.Aliases = orEmpty(without(c.Aliases, c.Name))
	c.Abilities = orEmpty(c.Abilities)
	c.Relationships = orEmpty(c.Relationships)
	c.Affiliations = orEmpty(c.Affiliations)
	c.Media = orEmpty(c.Media)
	c.Sources = orEmpty(c.Sources)
	return c
}

func enhanceAbilities(c *CharacterData, arcContext string) {
	if arcContext == "" {
		return
	}
	c.ArcContext = arcContext
	if !containsFold(arcContext, "timeskip") && !containsFold(arcContext, "war") {
		return
	}
	for i, ability := range c.Abilities {
		c.Abilities[i] = ability + " (Enhanced during " + arcContext + ")"
	}
}
