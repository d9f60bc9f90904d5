package compiler

// Version identifies this compiler build in the manifest's extra.compiler
// field and the NEF compiler-id field.
const Version = "0.1.0"
