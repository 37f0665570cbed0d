package schema

// StarterSource returns the sample program a fresh project opens with.
func StarterSource(l Language) string {
	return starterSources[l]
}

var starterSources = map[Language]string{
	LanguageJavaScript: `// JavaScript playground
const greet = (name) => "Hello, " + name;
console.log(greet("World"));
`,
	LanguageReact: `import React, { useState } from 'react';

export default function App() {
  const [count, setCount] = useState(0);
  return (
    <div style={{ padding: '40px', fontFamily: 'sans-serif', textAlign: 'center' }}>
      <h1>React Preview</h1>
      <button onClick={() => setCount(c => c - 1)}>-</button>
      <span style={{ margin: '0 16px', fontWeight: 'bold' }}>{count}</span>
      <button onClick={() => setCount(c => c + 1)}>+</button>
    </div>
  );
}
`,
	LanguageNodeJS: `const os = require('os');

console.log("Starting Node.js process...");
console.log("Platform: " + os.platform());
`,
	LanguageMongoDB: `use production_db;

db.products.insertOne({ name: "Mechanical Keyboard", price: 89, tags: ["tech"] });

print("Data inserted. Type commands below to query.");
`,
	LanguagePython: `def double(values):
    return [v * 2 for v in values]

numbers = [1, 2, 3, 4, 5]
print(f"Original: {numbers}")
print(f"Doubled: {double(numbers)}")
`,
	LanguageJava: `public class Main {
    public static void main(String[] args) {
        int[] numbers = {10, 20, 30};
        for (int n : numbers) {
            System.out.println("Processing: " + n);
        }
    }
}
`,
	LanguageCPP: `#include <iostream>
#include <vector>

int main() {
    std::vector<int> v = {1, 2, 3};
    for (int i : v) {
        std::cout << "Element: " << i << std::endl;
    }
    return 0;
}
`,
}
