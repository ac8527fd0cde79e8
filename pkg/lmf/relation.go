package lmf

// RelationType is the relType attribute of a SenseRelation or
// SynsetRelation. The set is open: values not listed here are stored as
// they appear in the source.
type RelationType string

// Synset-level relation types.
const (
	Hypernym         RelationType = "hypernym"
	Hyponym          RelationType = "hyponym"
	InstanceHypernym RelationType = "instance_hypernym"
	InstanceHyponym  RelationType = "instance_hyponym"
	MeroMember       RelationType = "mero_member"
	MeroPart         RelationType = "mero_part"
	MeroSubstance    RelationType = "mero_substance"
	HoloMember       RelationType = "holo_member"
	HoloPart         RelationType = "holo_part"
	HoloSubstance    RelationType = "holo_substance"
	Entails          RelationType = "entails"
	Causes           RelationType = "causes"
	Similar          RelationType = "similar"
	Attribute        RelationType = "attribute"
	DomainTopic      RelationType = "domain_topic"
	DomainRegion     RelationType = "domain_region"
	HasDomainTopic   RelationType = "has_domain_topic"
	HasDomainRegion  RelationType = "has_domain_region"
	Exemplifies      RelationType = "exemplifies"
	IsExemplifiedBy  RelationType = "is_exemplified_by"
)

// Sense-level relation types.
const (
	Antonym            RelationType = "antonym"
	Also               RelationType = "also"
	Participle         RelationType = "participle"
	Pertainym          RelationType = "pertainym"
	Derivation         RelationType = "derivation"
	DomainMemberTopic  RelationType = "domain_member_topic"
	DomainMemberRegion RelationType = "domain_member_region"
)

// Scope says whether a relation links senses or synsets.
type Scope string

const (
	ScopeSense  Scope = "sense"
	ScopeSynset Scope = "synset"
)

// DefaultRelationKinds are the kinds a lookup resolves unless told otherwise.
var DefaultRelationKinds = []RelationType{Hypernym, Hyponym, Antonym}
