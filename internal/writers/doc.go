// Package writers turns a finished protocol into serialized output.
//
// Design:
//   • Writers own all presentation of the finished document (text, JSON).
//   • The core packages only render steps and tables; they never write.
//   • JSON goes through pkg/api (v1) for a stable wire format.
package writers
