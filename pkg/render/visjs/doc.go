// Package visjs renders the mesh display graph as a standalone HTML page
// driven by vis-network.
//
// Nodes are loaded with DataSet.update so that repeated ids (a neighbour seen
// by several devices) collapse into one drawn node. Neighbour nodes belong to
// the "computer" group, which the page fades to 0.3 opacity.
package visjs
