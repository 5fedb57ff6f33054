package rdf

// Namespace prefixes used by the scoring vocabulary.
const (
	NSRDF     = "http://www.w3.org/1999/02/22-rdf-syntax-ns#"
	NSXSD     = "http://www.w3.org/2001/XMLSchema#"
	NSDCAT    = "http://www.w3.org/ns/dcat#"
	NSDCTERMS = "http://purl.org/dc/terms/"
	NSPROV    = "http://www.w3.org/ns/prov#"
	NSFTR     = "https://w3id.org/ftr#"
	NSSIO     = "http://semanticscience.org/resource/"
	NSVCARD   = "http://www.w3.org/2006/vcard/ns#"
	NSSCHEMA  = "http://schema.org/"
)

// RDF and XSD terms.
const (
	RDFType       = NSRDF + "type"
	RDFLangString = NSRDF + "langString"

	XSDString   = NSXSD + "string"
	XSDFloat    = NSXSD + "float"
	XSDInt      = NSXSD + "int"
	XSDDate     = NSXSD + "date"
	XSDDateTime = NSXSD + "dateTime"
)

// DCAT terms.
const (
	DCATDataService         = NSDCAT + "DataService"
	DCATEndpointURL         = NSDCAT + "endpointURL"
	DCATEndpointDescription = NSDCAT + "endpointDescription"
	DCATKeyword             = NSDCAT + "keyword"
	DCATVersion             = NSDCAT + "version"
	DCATContactPoint        = NSDCAT + "contactPoint"
)

// Dublin Core terms.
const (
	DCTitle       = NSDCTERMS + "title"
	DCDescription = NSDCTERMS + "description"
	DCLicense     = NSDCTERMS + "license"
	DCIdentifier  = NSDCTERMS + "identifier"
	DCSource      = NSDCTERMS + "source"
	DCConformsTo  = NSDCTERMS + "conformsTo"
)

// PROV-O terms.
const (
	PROVEntity            = NSPROV + "Entity"
	PROVCollection        = NSPROV + "Collection"
	PROVAgent             = NSPROV + "Agent"
	PROVSoftwareAgent     = NSPROV + "SoftwareAgent"
	PROVWasGeneratedBy    = NSPROV + "wasGeneratedBy"
	PROVGenerated         = NSPROV + "generated"
	PROVWasAssociatedWith = NSPROV + "wasAssociatedWith"
	PROVValue             = NSPROV + "value"
	PROVUsed              = NSPROV + "used"
	PROVHadMember         = NSPROV + "hadMember"
	PROVWasAttributedTo   = NSPROV + "wasAttributedTo"
	PROVWasDerivedFrom    = NSPROV + "wasDerivedFrom"
	PROVGeneratedAtTime   = NSPROV + "generatedAtTime"
)

// FAIR Test Results vocabulary.
const (
	FTRTestResult            = NSFTR + "TestResult"
	FTRTestExecutionActivity = NSFTR + "TestExecutionActivity"
	FTRTestResultSet         = NSFTR + "TestResultSet"
	FTRScoringAlgorithm      = NSFTR + "ScoringAlgorithm"
	FTRAssessmentTarget      = NSFTR + "assessmentTarget"
	FTROutputFromTest        = NSFTR + "outputFromTest"
	FTRApplicationArea       = NSFTR + "applicationArea"
	FTRScoringFunction       = NSFTR + "scoringFunction"
	FTRInvokesTest           = NSFTR + "invokesTest"
	FTRUnknownProperty       = NSFTR + "unknownProperty"
)

// SIO, vCard and schema.org terms.
const (
	SIOIsImplementationOf = NSSIO + "SIO_000233"

	VCardIndividual = NSVCARD + "Individual"
	VCardHasEmail   = NSVCARD + "hasEmail"

	SchemaIdentifier          = NSSCHEMA + "identifier"
	SchemaAuthor              = NSSCHEMA + "author"
	SchemaName                = NSSCHEMA + "name"
	SchemaDescription         = NSSCHEMA + "description"
	SchemaLicense             = NSSCHEMA + "license"
	SchemaContactPoint        = NSSCHEMA + "contactPoint"
	SchemaContactPointType    = NSSCHEMA + "ContactPoint"
	SchemaURL                 = NSSCHEMA + "url"
	SchemaSoftwareApplication = NSSCHEMA + "SoftwareApplication"
	SchemaSoftwareVersion     = NSSCHEMA + "softwareVersion"
)

// Prefixes maps compact prefixes to namespaces. It is used as the JSON-LD
// context when serializing graphs.
var Prefixes = map[string]string{
	"rdf":     NSRDF,
	"xsd":     NSXSD,
	"dcat":    NSDCAT,
	"dcterms": NSDCTERMS,
	"prov":    NSPROV,
	"ftr":     NSFTR,
	"sio":     NSSIO,
	"vcard":   NSVCARD,
	"schema":  NSSCHEMA,
}
