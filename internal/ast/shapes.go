package ast

// This file documents the exact Children/Data layout the parser
// produces for each Kind. The semantic analyzer, interpreter, C
// translator and x86 generator all rely on this layout; it is the one
// contract shared by every back-end.
//
//	Program      Data=name string       Children=[VarBlock, Block, FuncDecl...]
//	VarBlock     Data=nil                Children=[VarDecl...]  (globals or locals)
//	VarDecl      Data=Type               Children=[Ident...]    (one or more names of Data's type)
//	FuncDecl     Data=name string        Type=return Type       Children=[ParamList, VarBlock, Block]
//	ParamList    Data=nil                Children=[Param...]
//	Param        Data=name string        Type=param Type
//	Block        Data=nil                Children=[statement...]
//	AssignStmt   Data=nil                Children=[LValue, expr]
//	CallStmt     Data=nil                Children=[CallExpr]
//	ReturnStmt   Data=nil                Children=[] or [expr]
//	IfStmt       Data=nil                Children=[expr, Block] or [expr, Block, Block]
//	WhileStmt    Data=nil                Children=[expr, Block]
//	RepeatStmt   Data=nil                Children=[Block, expr]
//	ForStmt      Data=negative bool      Children=[LValue, fromExpr, toExpr, stepExprOrNil, Block]
//	NullStmt     Data=nil                Children=[]
//	BinaryExpr   Data=operator string    Children=[lhs, rhs]
//	UnaryExpr    Data=operator string    Children=[operand]
//	CallExpr     Data=name string        Children=[ArgList]
//	ArgList      Data=nil                Children=[expr...]
//	LValue       Data=name string        Children=[] or [indexExpr...]
//	ParenExpr    Data=nil                Children=[expr]
//	Ident        Data=name string        Children=[]
//	IntLit       Data=int
//	FloatLit     Data=float64
//	CharLit      Data=rune (int32 code point)
//	StringLit    Data=string
//	BoolLit      Data=bool
