package inventory

import "strings"

// Kind is the pg_dump object tag of an inventory entry.
type Kind string

const (
	KindACL                  Kind = "ACL"
	KindAccessMethod         Kind = "ACCESS METHOD"
	KindAggregate            Kind = "AGGREGATE"
	KindCast                 Kind = "CAST"
	KindCheckConstraint      Kind = "CHECK CONSTRAINT"
	KindCollation            Kind = "COLLATION"
	KindComment              Kind = "COMMENT"
	KindConstraint           Kind = "CONSTRAINT"
	KindConversion           Kind = "CONVERSION"
	KindDatabase             Kind = "DATABASE"
	KindDatabaseProperties   Kind = "DATABASE PROPERTIES"
	KindDefault              Kind = "DEFAULT"
	KindDefaultACL           Kind = "DEFAULT ACL"
	KindDomain               Kind = "DOMAIN"
	KindEncoding             Kind = "ENCODING"
	KindEventTrigger         Kind = "EVENT TRIGGER"
	KindExtension            Kind = "EXTENSION"
	KindFDW                  Kind = "FOREIGN DATA WRAPPER"
	KindFKConstraint         Kind = "FK CONSTRAINT"
	KindForeignTable         Kind = "FOREIGN TABLE"
	KindFunction             Kind = "FUNCTION"
	KindIndex                Kind = "INDEX"
	KindIndexAttach          Kind = "INDEX ATTACH"
	KindMaterializedView     Kind = "MATERIALIZED VIEW"
	KindOperator             Kind = "OPERATOR"
	KindOperatorClass        Kind = "OPERATOR CLASS"
	KindOperatorFamily       Kind = "OPERATOR FAMILY"
	KindPolicy               Kind = "POLICY"
	KindProceduralLanguage   Kind = "PROCEDURAL LANGUAGE"
	KindProcedure            Kind = "PROCEDURE"
	KindPublication          Kind = "PUBLICATION"
	KindPublicationTable     Kind = "PUBLICATION TABLE"
	KindPublicationSchema    Kind = "PUBLICATION TABLES IN SCHEMA"
	KindRowSecurity          Kind = "ROW SECURITY"
	KindRule                 Kind = "RULE"
	KindSchema               Kind = "SCHEMA"
	KindSearchPath           Kind = "SEARCHPATH"
	KindSecurityLabel        Kind = "SECURITY LABEL"
	KindSequence             Kind = "SEQUENCE"
	KindSequenceOwnedBy      Kind = "SEQUENCE OWNED BY"
	KindSequenceSet          Kind = "SEQUENCE SET"
	KindServer               Kind = "SERVER"
	KindShellType            Kind = "SHELL TYPE"
	KindStatistics           Kind = "STATISTICS"
	KindStdStrings           Kind = "STDSTRINGS"
	KindSubscription         Kind = "SUBSCRIPTION"
	KindTable                Kind = "TABLE"
	KindTableAttach          Kind = "TABLE ATTACH"
	KindTablespace           Kind = "TABLESPACE"
	KindTextSearchConfig     Kind = "TEXT SEARCH CONFIGURATION"
	KindTextSearchDictionary Kind = "TEXT SEARCH DICTIONARY"
	KindTextSearchParser     Kind = "TEXT SEARCH PARSER"
	KindTextSearchTemplate   Kind = "TEXT SEARCH TEMPLATE"
	KindTransform            Kind = "TRANSFORM"
	KindTrigger              Kind = "TRIGGER"
	KindType                 Kind = "TYPE"
	KindUserMapping          Kind = "USER MAPPING"
	KindView                 Kind = "VIEW"
)

// Role says what the generator does with entries of a kind.
type Role int

const (
	RoleUnknown Role = iota
	// RolePrimary entries get a file of their own.
	RolePrimary
	// RoleChild entries are folded into the file of the object they depend on.
	RoleChild
	// RoleOperator entries are batched into a single ordered file.
	RoleOperator
	// RoleDirective entries go to the project preamble.
	RoleDirective
	// RolePlaceholder entries are expected to produce no output.
	RolePlaceholder
)

func (r Role) String() string {
	switch r {
	case RolePrimary:
		return "primary"
	case RoleChild:
		return "child"
	case RoleOperator:
		return "operator"
	case RoleDirective:
		return "directive"
	case RolePlaceholder:
		return "placeholder"
	default:
		return "unknown"
	}
}

// Naming selects how file names are derived for a primary kind.
type Naming int

const (
	// NamePlain uses the display name with whitespace replaced by hyphens.
	NamePlain Naming = iota
	// NameSignature strips the parameter list and appends the arity so
	// overloads get distinct names.
	NameSignature
)

// KindInfo is the registry record for one kind.
type KindInfo struct {
	Role    Role
	Dir     string
	Naming  Naming
	Section Section
	// Title is the header used when the kind is rendered as a child section
	// or as a file header.
	Title string
}

var registry = map[Kind]KindInfo{
	KindAccessMethod:         {Role: RolePrimary, Dir: "access_methods", Section: SectionPreData, Title: "Access Method"},
	KindAggregate:            {Role: RolePrimary, Dir: "aggregates", Naming: NameSignature, Section: SectionPreData, Title: "Aggregate"},
	KindCast:                 {Role: RolePrimary, Dir: "casts", Section: SectionPreData, Title: "Cast"},
	KindCollation:            {Role: RolePrimary, Dir: "collations", Section: SectionPreData, Title: "Collation"},
	KindConversion:           {Role: RolePrimary, Dir: "conversions", Section: SectionPreData, Title: "Conversion"},
	KindDefaultACL:           {Role: RolePrimary, Dir: "default_privileges", Section: SectionPostData, Title: "Default Privileges"},
	KindDomain:               {Role: RolePrimary, Dir: "domains", Section: SectionPreData, Title: "Domain"},
	KindEventTrigger:         {Role: RolePrimary, Dir: "event_triggers", Section: SectionPostData, Title: "Event Trigger"},
	KindExtension:            {Role: RolePrimary, Dir: "extensions", Section: SectionPreData, Title: "Extension"},
	KindFDW:                  {Role: RolePrimary, Dir: "fdws", Section: SectionPreData, Title: "Foreign Data Wrapper"},
	KindFunction:             {Role: RolePrimary, Dir: "functions", Naming: NameSignature, Section: SectionPreData, Title: "Function"},
	KindMaterializedView:     {Role: RolePrimary, Dir: "materialized_views", Section: SectionPreData, Title: "Materialized View"},
	KindProceduralLanguage:   {Role: RolePrimary, Dir: "extensions", Section: SectionPreData, Title: "Procedural Language"},
	KindProcedure:            {Role: RolePrimary, Dir: "procedures", Naming: NameSignature, Section: SectionPreData, Title: "Procedure"},
	KindPublication:          {Role: RolePrimary, Dir: "publications", Section: SectionPostData, Title: "Publication"},
	KindRule:                 {Role: RolePrimary, Dir: "rules", Section: SectionPostData, Title: "Rule"},
	KindSchema:               {Role: RolePrimary, Dir: "schemata", Section: SectionPreData, Title: "Schema"},
	KindSequence:             {Role: RolePrimary, Dir: "sequences", Section: SectionPreData, Title: "Sequence"},
	KindServer:               {Role: RolePrimary, Dir: "servers", Section: SectionPreData, Title: "Server"},
	KindSubscription:         {Role: RolePrimary, Dir: "subscriptions", Section: SectionPostData, Title: "Subscription"},
	KindTable:                {Role: RolePrimary, Dir: "tables", Section: SectionPreData, Title: "Table"},
	KindTablespace:           {Role: RolePrimary, Dir: "tablespaces", Section: SectionPreData, Title: "Tablespace"},
	KindTextSearchConfig:     {Role: RolePrimary, Dir: "text_search/configurations", Section: SectionPreData, Title: "Text Search Configuration"},
	KindTextSearchDictionary: {Role: RolePrimary, Dir: "text_search/dictionaries", Section: SectionPreData, Title: "Text Search Dictionary"},
	KindTextSearchParser:     {Role: RolePrimary, Dir: "text_search/parsers", Section: SectionPreData, Title: "Text Search Parser"},
	KindTextSearchTemplate:   {Role: RolePrimary, Dir: "text_search/templates", Section: SectionPreData, Title: "Text Search Template"},
	KindTransform:            {Role: RolePrimary, Dir: "transforms", Section: SectionPreData, Title: "Transform"},
	KindTrigger:              {Role: RolePrimary, Dir: "triggers", Section: SectionPostData, Title: "Trigger"},
	KindType:                 {Role: RolePrimary, Dir: "types", Naming: NameSignature, Section: SectionPreData, Title: "Type"},
	KindView:                 {Role: RolePrimary, Dir: "views", Section: SectionPreData, Title: "View"},

	KindDefault:           {Role: RoleChild, Section: SectionPreData, Title: "Defaults"},
	KindConstraint:        {Role: RoleChild, Section: SectionPostData, Title: "Constraints"},
	KindCheckConstraint:   {Role: RoleChild, Section: SectionPostData, Title: "Check Constraints"},
	KindFKConstraint:      {Role: RoleChild, Section: SectionPostData, Title: "Foreign Keys"},
	KindIndex:             {Role: RoleChild, Section: SectionPostData, Title: "Indexes"},
	KindIndexAttach:       {Role: RoleChild, Section: SectionPostData, Title: "Index Attachments"},
	KindTableAttach:       {Role: RoleChild, Section: SectionPreData, Title: "Partition Attachments"},
	KindStatistics:        {Role: RoleChild, Section: SectionPostData, Title: "Statistics"},
	KindSequenceOwnedBy:   {Role: RoleChild, Section: SectionPreData, Title: "Sequence Ownership"},
	KindSequenceSet:       {Role: RoleChild, Section: SectionData, Title: "Sequence Values"},
	KindForeignTable:      {Role: RoleChild, Section: SectionPreData, Title: "Foreign Tables"},
	KindUserMapping:       {Role: RoleChild, Section: SectionPreData, Title: "User Mappings"},
	KindRowSecurity:       {Role: RoleChild, Section: SectionPostData, Title: "Row Security"},
	KindPolicy:            {Role: RoleChild, Section: SectionPostData, Title: "Policies"},
	KindPublicationTable:  {Role: RoleChild, Section: SectionPostData, Title: "Publication Tables"},
	KindPublicationSchema: {Role: RoleChild, Section: SectionPostData, Title: "Publication Schemas"},
	KindComment:           {Role: RoleChild, Section: SectionNone, Title: "Comments"},
	KindSecurityLabel:     {Role: RoleChild, Section: SectionNone, Title: "Security Labels"},
	KindACL:               {Role: RoleChild, Section: SectionNone, Title: "ACLs"},

	KindOperator:       {Role: RoleOperator, Section: SectionPreData, Title: "Operator"},
	KindOperatorClass:  {Role: RoleOperator, Section: SectionPreData, Title: "Operator Class"},
	KindOperatorFamily: {Role: RoleOperator, Section: SectionPreData, Title: "Operator Family"},

	KindEncoding:           {Role: RoleDirective, Section: SectionPreData, Title: "Encoding"},
	KindStdStrings:         {Role: RoleDirective, Section: SectionPreData, Title: "Standard Strings"},
	KindSearchPath:         {Role: RoleDirective, Section: SectionPreData, Title: "Search Path"},
	KindDatabase:           {Role: RoleDirective, Section: SectionPreData, Title: "Database"},
	KindDatabaseProperties: {Role: RoleDirective, Section: SectionPreData, Title: "Database Properties"},

	KindShellType: {Role: RolePlaceholder, Section: SectionPreData, Title: "Shell Type"},
}

// PrimaryOrder is the order primary kinds are generated in.
var PrimaryOrder = []Kind{
	KindAccessMethod,
	KindAggregate,
	KindCast,
	KindCollation,
	KindConversion,
	KindDefaultACL,
	KindDomain,
	KindEventTrigger,
	KindExtension,
	KindFDW,
	KindFunction,
	KindMaterializedView,
	KindProceduralLanguage,
	KindProcedure,
	KindPublication,
	KindRule,
	KindSchema,
	KindSequence,
	KindServer,
	KindSubscription,
	KindTable,
	KindTablespace,
	KindTextSearchConfig,
	KindTextSearchDictionary,
	KindTextSearchParser,
	KindTextSearchTemplate,
	KindTransform,
	KindTrigger,
	KindType,
	KindView,
}

// ChildOrder is the order child sections are rendered in within a file.
var ChildOrder = []Kind{
	KindDefault,
	KindSequenceOwnedBy,
	KindSequenceSet,
	KindConstraint,
	KindCheckConstraint,
	KindFKConstraint,
	KindIndex,
	KindIndexAttach,
	KindTableAttach,
	KindStatistics,
	KindForeignTable,
	KindUserMapping,
	KindRowSecurity,
	KindPolicy,
	KindPublicationTable,
	KindPublicationSchema,
	KindComment,
	KindSecurityLabel,
	KindACL,
}

// Lookup returns the registry record for k. Unlisted kinds starting with
// OPERATOR are treated as operators.
func Lookup(k Kind) (KindInfo, bool) {
	info, ok := registry[k]
	if ok {
		return info, true
	}
	if strings.HasPrefix(string(k), string(KindOperator)) {
		return KindInfo{Role: RoleOperator, Section: SectionPreData, Title: "Operator"}, true
	}
	return KindInfo{}, false
}

// RoleOf is a shorthand for Lookup(k).Role.
func RoleOf(k Kind) Role {
	info, _ := Lookup(k)
	return info.Role
}

// Directories returns every distinct primary directory in PrimaryOrder.
func Directories() []string {
	seen := make(map[string]bool, len(PrimaryOrder))
	dirs := make([]string, 0, len(PrimaryOrder))
	for _, k := range PrimaryOrder {
		dir := registry[k].Dir
		if dir == "" || seen[dir] {
			continue
		}
		seen[dir] = true
		dirs = append(dirs, dir)
	}
	return dirs
}

// ParseKind normalizes a tag read from a dump or inventory file.
func ParseKind(tag string) Kind {
	return Kind(strings.ToUpper(strings.Join(strings.Fields(tag), " ")))
}
