package sparql

// Document is a parsed SPARQL request: a *Query or an *Update.
//
// This is a sealed interface - only *Query and *Update implement it.
type Document interface {
	document() // Marker method - seals interface to this package

	// Declarations returns the BASE IRI and PREFIX declarations of the
	// document's prologue.
	Declarations() (base string, prefixes []Prefix)

	// CloneDocument returns a deep copy sharing no mutable state with the
	// receiver.
	CloneDocument() Document
}

// Prefix is a PREFIX declaration binding Name to the namespace IRI.
type Prefix struct {
	Name string
	IRI  string
}

// QueryType identifies the query form.
type QueryType string

const (
	SelectQuery    QueryType = "SELECT"
	AskQuery       QueryType = "ASK"
	ConstructQuery QueryType = "CONSTRUCT"
	DescribeQuery  QueryType = "DESCRIBE"
)

// Query is a read query.
//
// Where holds the top-level patterns of the WHERE clause in source order.
// Template is only set for CONSTRUCT queries; Variables is empty when
// Wildcard is set (SELECT * and DESCRIBE *).
type Query struct {
	QueryType QueryType
	Base      string
	Prefixes  []Prefix

	Distinct  bool
	Reduced   bool
	Wildcard  bool
	Variables []Projection
	Template  []Triple

	From  *Dataset
	Where []*Pattern

	Group  []Grouping
	Having []*Expression
	Order  []Ordering
	Limit  *int
	Offset *int
	Values *Values
}

func (*Query) document() {}

// Declarations implements Document.
func (q *Query) Declarations() (string, []Prefix) {
	return q.Base, q.Prefixes
}

// CloneDocument implements Document.
func (q *Query) CloneDocument() Document {
	return q.Clone()
}

// IsUpdate reports whether doc is an update request.
func IsUpdate(doc Document) bool {
	_, ok := doc.(*Update)
	return ok
}

// Projection is one entry of a SELECT or DESCRIBE clause. When Expression is
// set the entry is (Expression AS ?Variable).
type Projection struct {
	Variable   Term
	Expression *Expression
}

// Dataset holds FROM and FROM NAMED (or USING and USING NAMED) graphs.
type Dataset struct {
	Default []Term
	Named   []Term
}

// Grouping is one GROUP BY condition, optionally bound with AS.
type Grouping struct {
	Expression *Expression
	Variable   *Term
}

// Ordering is one ORDER BY condition.
type Ordering struct {
	Expression *Expression
	Descending bool
}

// Values is an inline data block. A nil cell is UNDEF.
type Values struct {
	Variables []Term
	Rows      [][]*Term
}

// Triple is a triple pattern. When Path is set it replaces Predicate.
type Triple struct {
	Subject   Term
	Predicate Term
	Path      *Path
	Object    Term
}

// PathType identifies a property path operator.
type PathType string

const (
	PathLink        PathType = ""
	PathSequence    PathType = "/"
	PathAlternative PathType = "|"
	PathInverse     PathType = "^"
	PathZeroOrMore  PathType = "*"
	PathOneOrMore   PathType = "+"
	PathZeroOrOne   PathType = "?"
	PathNegated     PathType = "!"
)

// Path is a property path. A PathLink is a single IRI held in Link; every
// other type combines Items.
type Path struct {
	Type  PathType
	Link  Term
	Items []*Path
}

// PatternType identifies the syntax form of a graph pattern.
type PatternType string

const (
	BGPPattern      PatternType = "bgp"
	GroupPattern    PatternType = "group"
	OptionalPattern PatternType = "optional"
	UnionPattern    PatternType = "union"
	MinusPattern    PatternType = "minus"
	GraphPattern    PatternType = "graph"
	ServicePattern  PatternType = "service"
	FilterPattern   PatternType = "filter"
	BindPattern     PatternType = "bind"
	ValuesPattern   PatternType = "values"
	QueryPattern    PatternType = "query"
)

// Pattern is a graph pattern.
//
// Fields are populated according to Type:
//   - bgp: Triples
//   - group, optional, union, minus: Patterns (union members are groups)
//   - graph: Name plus Patterns in a WHERE clause, Name plus Triples in
//     update quad data
//   - service: Name, Silent, Patterns
//   - filter: Expression
//   - bind: Expression, Variable
//   - values: Values
//   - query: Query (a sub-select)
type Pattern struct {
	Type       PatternType
	Triples    []Triple
	Patterns   []*Pattern
	Name       *Term
	Silent     bool
	Expression *Expression
	Variable   *Term
	Values     *Values
	Query      *Query
}

// IsSubQuery reports whether p is a nested SELECT.
func (p *Pattern) IsSubQuery() bool {
	return p.Type == QueryPattern && p.Query != nil
}

// HasName reports whether p is a named-graph pattern.
func (p *Pattern) HasName() bool {
	return p.Type == GraphPattern && p.Name != nil
}

// HasExpression reports whether p carries an expression other than a
// FILTER condition.
func (p *Pattern) HasExpression() bool {
	return p.Expression != nil && p.Type != FilterPattern
}

// HasTriples reports whether p carries triple patterns.
func (p *Pattern) HasTriples() bool {
	return len(p.Triples) > 0
}

// HasPatterns reports whether p nests other patterns.
func (p *Pattern) HasPatterns() bool {
	return len(p.Patterns) > 0
}

// ExpressionType identifies the form of an expression node.
type ExpressionType string

const (
	TermExpression      ExpressionType = "term"
	OperationExpression ExpressionType = "operation"
	FunctionExpression  ExpressionType = "functionCall"
	AggregateExpression ExpressionType = "aggregate"
)

// Expression is a node of a FILTER, BIND, HAVING, ORDER BY or projection
// expression.
//
// Operator is lower case: a symbol ("=", "&&", "!", "+") or a built-in
// function name ("str", "regex", "bound"). The exists and notexists
// operators carry their group in Pattern. For in and notin, Args[0] is the
// tested expression and the remaining args are the list members. Unary
// minus and plus use "u-" and "u+".
type Expression struct {
	Type        ExpressionType
	Term        Term
	Operator    string
	Function    Term
	Aggregation string
	Distinct    bool
	Wildcard    bool
	Separator   *string
	Args        []*Expression
	Pattern     *Pattern
}

// TermExpr wraps t as an expression.
func TermExpr(t Term) *Expression {
	return &Expression{Type: TermExpression, Term: t}
}

// OperationExpr builds an operator expression.
func OperationExpr(operator string, args ...*Expression) *Expression {
	return &Expression{Type: OperationExpression, Operator: operator, Args: args}
}

// UpdateType identifies an update operation.
type UpdateType string

const (
	InsertDataUpdate  UpdateType = "insertdata"
	DeleteDataUpdate  UpdateType = "deletedata"
	DeleteWhereUpdate UpdateType = "deletewhere"
	ModifyUpdate      UpdateType = "modify"
	LoadUpdate        UpdateType = "load"
	ClearUpdate       UpdateType = "clear"
	DropUpdate        UpdateType = "drop"
	CreateUpdate      UpdateType = "create"
	AddUpdate         UpdateType = "add"
	MoveUpdate        UpdateType = "move"
	CopyUpdate        UpdateType = "copy"
)

// Update is an update request: a sequence of operations.
type Update struct {
	Base       string
	Prefixes   []Prefix
	Operations []*Operation
}

func (*Update) document() {}

// Declarations implements Document.
func (u *Update) Declarations() (string, []Prefix) {
	return u.Base, u.Prefixes
}

// CloneDocument implements Document.
func (u *Update) CloneDocument() Document {
	return u.Clone()
}

// Operation is a single update operation.
//
// Graph is the WITH graph of a modify operation and the target of CREATE,
// CLEAR and DROP. Source and Destination are used by LOAD (source IRI and
// INTO graph) and by ADD, MOVE and COPY. Insert and Delete hold quad
// patterns: bgp patterns for the default graph and graph patterns with
// Triples for named graphs.
type Operation struct {
	Type        UpdateType
	Silent      bool
	Graph       *GraphTarget
	Source      *GraphTarget
	Destination *GraphTarget
	Delete      []*Pattern
	Insert      []*Pattern
	Using       *Dataset
	Where       []*Pattern
}

// GraphTargetKind identifies how a graph management operation addresses
// graphs.
type GraphTargetKind string

const (
	NamedGraphTarget   GraphTargetKind = "graph"
	DefaultGraphTarget GraphTargetKind = "default"
	AllNamedTarget     GraphTargetKind = "named"
	AllGraphsTarget    GraphTargetKind = "all"
)

// GraphTarget names the graph an operation acts on. Name is only set for
// NamedGraphTarget.
type GraphTarget struct {
	Kind GraphTargetKind
	Name Term
}

// HasName reports whether g addresses one named graph.
func (g *GraphTarget) HasName() bool {
	return g != nil && g.Kind == NamedGraphTarget
}
