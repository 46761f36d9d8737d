// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package catalog

import "github.com/bureau-foundation/kinship/lib/record"

// Table names.
const (
	Assertion     = "assertion"
	Calendar      = "calendar"
	Citation      = "citation"
	CulturalNorm  = "cultural_norm"
	Date          = "date"
	Event         = "event"
	EventType     = "event_type"
	Group         = "group"
	LocalizedText = "localized_text"
	Media         = "media"
	Person        = "person"
	PersonName    = "person_name"
	Place         = "place"
	Repository    = "repository"
	Source        = "source"

	Note                  = "note"
	MediaJunction         = "media_junction"
	Restriction           = "restriction"
	Modification          = "modification"
	LocalizedTextJunction = "localized_text_junction"
	CulturalNormJunction  = "cultural_norm_junction"
)

var certainty = []string{"unknown", "low", "medium", "high", "certain"}

var tables = []Table{
	{
		Name: Assertion,
		Fields: []Field{
			{Name: "citation_id", Kind: Link, Target: Citation, Required: true},
			{Name: "person_id", Kind: Link, Target: Person},
			{Name: "event_id", Kind: Link, Target: Event},
			{Name: "group_id", Kind: Link, Target: Group},
			{Name: "place_id", Kind: Link, Target: Place},
			{Name: "role", Kind: Text},
			{Name: "certainty", Kind: Enum, Values: certainty},
			{Name: "reason", Kind: Text},
		},
		Columns: []string{"role", "citation_id", "person_id", "event_id"},
	},
	{
		Name: Calendar,
		Fields: []Field{
			{Name: "name", Kind: Text, Required: true},
			{Name: "description", Kind: Text},
		},
		Columns: []string{"name", "description"},
	},
	{
		Name: Citation,
		Fields: []Field{
			{Name: "source_id", Kind: Link, Target: Source, Required: true},
			{Name: "location", Kind: Text},
			{Name: "extract", Kind: Text},
			{Name: "extract_type", Kind: Enum, Values: []string{"transcript", "abstract", "translation", "summary"}},
			{Name: "date_id", Kind: Link, Target: Date},
		},
		Columns: []string{"source_id", "location", "extract"},
	},
	{
		Name: CulturalNorm,
		Fields: []Field{
			{Name: "description", Kind: Text, Required: true},
			{Name: "place_id", Kind: Link, Target: Place},
			{Name: "date_start_id", Kind: Link, Target: Date},
			{Name: "date_end_id", Kind: Link, Target: Date},
			{Name: "certainty", Kind: Enum, Values: certainty},
		},
		Columns: []string{"description", "place_id"},
	},
	{
		Name: Date,
		Fields: []Field{
			{Name: "date", Kind: Text, Required: true},
			{Name: "calendar_id", Kind: Link, Target: Calendar},
			{Name: "qualification", Kind: Enum, Values: []string{"exact", "about", "before", "after", "between", "estimated", "calculated"}},
			{Name: "description", Kind: Text},
		},
		Columns: []string{"date", "qualification", "calendar_id"},
	},
	{
		Name: Event,
		Fields: []Field{
			{Name: "event_type_id", Kind: Link, Target: EventType, Required: true},
			{Name: "description", Kind: Text},
			{Name: "date_id", Kind: Link, Target: Date},
			{Name: "place_id", Kind: Link, Target: Place},
		},
		Columns: []string{"description", "event_type_id", "date_id", "place_id"},
	},
	{
		Name: EventType,
		Fields: []Field{
			{Name: "type", Kind: Text, Required: true},
			{Name: "category", Kind: Enum, Values: []string{"birth", "death", "union", "migration", "occupation", "religious", "legal", "other"}},
		},
		Columns: []string{"type", "category"},
	},
	{
		Name: Group,
		Fields: []Field{
			{Name: "type", Kind: Text, Required: true},
			{Name: "description", Kind: Text},
		},
		Columns: []string{"type", "description"},
	},
	{
		Name: LocalizedText,
		Fields: []Field{
			{Name: "locale", Kind: Text, Required: true},
			{Name: "text", Kind: Text, Required: true},
		},
		Columns: []string{"locale", "text"},
	},
	{
		Name: Media,
		Fields: []Field{
			{Name: "identifier", Kind: Text, Required: true},
			{Name: "title", Kind: Text},
			{Name: "type", Kind: Enum, Values: []string{"image", "audio", "video", "document", "other"}},
			{Name: "description", Kind: Text},
			{Name: "date_id", Kind: Link, Target: Date},
		},
		Columns: []string{"identifier", "title", "type"},
	},
	{
		Name: Person,
		Fields: []Field{
			{Name: "sex", Kind: Enum, Values: []string{"male", "female", "intersex", "unknown"}},
			{Name: "living", Kind: Bool},
			{Name: "description", Kind: Text},
		},
		Columns: []string{"description", "sex"},
	},
	{
		Name: PersonName,
		Fields: []Field{
			{Name: "person_id", Kind: Link, Target: Person, Required: true},
			{Name: "type", Kind: Enum, Values: []string{"birth", "married", "alias", "nickname", "religious"}},
			{Name: "given_name", Kind: Text},
			{Name: "surname", Kind: Text},
			{Name: "sort_order", Kind: Integer},
		},
		Columns: []string{"surname", "given_name", "person_id"},
	},
	{
		Name: Place,
		Fields: []Field{
			{Name: "name", Kind: Text, Required: true},
			{Name: "type", Kind: Enum, Values: []string{"country", "region", "city", "parish", "address", "cemetery", "other"}},
			{Name: "enclosed_by_id", Kind: Link, Target: Place},
			{Name: "latitude", Kind: Float},
			{Name: "longitude", Kind: Float},
		},
		Columns: []string{"name", "type"},
	},
	{
		Name: Repository,
		Fields: []Field{
			{Name: "name", Kind: Text, Required: true},
			{Name: "address", Kind: Text},
			{Name: "url", Kind: Text},
		},
		Columns: []string{"name", "address"},
	},
	{
		Name: Source,
		Fields: []Field{
			{Name: "title", Kind: Text, Required: true},
			{Name: "author", Kind: Text},
			{Name: "repository_id", Kind: Link, Target: Repository},
			{Name: "date_id", Kind: Link, Target: Date},
			{Name: "location", Kind: Text},
		},
		Columns: []string{"title", "author", "repository_id"},
	},
	{
		Name:      Note,
		Dependent: true,
		Fields: referenceFields(
			Field{Name: "text", Kind: Text, Required: true},
			Field{Name: "locale", Kind: Text},
		),
		Columns: []string{"text", record.FieldReferenceTable, record.FieldReferenceID},
	},
	{
		Name:      MediaJunction,
		Dependent: true,
		Fields: referenceFields(
			Field{Name: "media_id", Kind: Link, Target: Media, Required: true},
			Field{Name: "description", Kind: Text},
		),
		Columns: []string{"media_id", record.FieldReferenceTable, record.FieldReferenceID},
	},
	{
		Name:      Restriction,
		Dependent: true,
		Single:    true,
		Fields: referenceFields(
			Field{Name: record.FieldRestriction, Kind: Enum, Required: true,
				Values: []string{record.Confidential, record.Public}},
		),
		Columns: []string{record.FieldRestriction, record.FieldReferenceTable, record.FieldReferenceID},
	},
	{
		Name:      Modification,
		Dependent: true,
		Single:    true,
		Fields: referenceFields(
			Field{Name: record.FieldCreationDate, Kind: Timestamp, Required: true},
			Field{Name: record.FieldUpdateDate, Kind: Timestamp},
		),
		Columns: []string{record.FieldReferenceTable, record.FieldReferenceID, record.FieldCreationDate, record.FieldUpdateDate},
	},
	{
		Name:      LocalizedTextJunction,
		Dependent: true,
		Fields: referenceFields(
			Field{Name: "localized_text_id", Kind: Link, Target: LocalizedText, Required: true},
			Field{Name: "column_name", Kind: Text, Required: true},
		),
		Columns: []string{"column_name", record.FieldReferenceTable, record.FieldReferenceID},
	},
	{
		Name:      CulturalNormJunction,
		Dependent: true,
		Fields: referenceFields(
			Field{Name: "cultural_norm_id", Kind: Link, Target: CulturalNorm, Required: true},
		),
		Columns: []string{"cultural_norm_id", record.FieldReferenceTable, record.FieldReferenceID},
	},
}
